package main

import (
	"fmt"
	"strconv"
	"time"

	"fundboard/internal/repository"
	"fundboard/internal/seed"
	"fundboard/internal/service"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var verifyPostCmd = &cobra.Command{
	Use:   "verify-post <post_id>",
	Short: "Mark a post as verified",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyPost,
}

var deactivateUserCmd = &cobra.Command{
	Use:   "deactivate-user <user_id>",
	Short: "Block a user from logging in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], false)
	},
}

var activateUserCmd = &cobra.Command{
	Use:   "activate-user <user_id>",
	Short: "Allow a deactivated user to log in again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], true)
	},
}

var listUsersCmd = &cobra.Command{
	Use:     "list-users",
	Aliases: []string{"users"},
	Short:   "List accounts",
	Args:    cobra.NoArgs,
	RunE:    runListUsers,
}

var pruneSessionsCmd = &cobra.Command{
	Use:   "prune-sessions",
	Short: "Delete sessions past their expiry",
	Args:  cobra.NoArgs,
	RunE:  runPruneSessions,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo data",
	Long: `Populate the database with demo users, profiles, posts, reactions and comments.

With --preset, accounts and posts are read from a YAML file instead of the
generation flags.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var (
	listLimit  int
	listOffset int

	seedPreset   string
	seedRandSeed int64
	seedOpts     = seed.DefaultOptions
)

func init() {
	listUsersCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum users to show")
	listUsersCmd.Flags().IntVar(&listOffset, "offset", 0, "Users to skip")

	seedCmd.Flags().StringVarP(&seedPreset, "preset", "p", "", "YAML preset file")
	seedCmd.Flags().Int64Var(&seedRandSeed, "seed", 0, "Random seed (0 picks one)")
	seedCmd.Flags().IntVar(&seedOpts.Users, "users", seedOpts.Users, "Users to generate")
	seedCmd.Flags().IntVar(&seedOpts.PostsPerUser, "posts", seedOpts.PostsPerUser, "Posts per generated user")
	seedCmd.Flags().IntVar(&seedOpts.CommentsPerPost, "comments", seedOpts.CommentsPerPost, "Comments per post")
	seedCmd.Flags().Float64Var(&seedOpts.ReactionChance, "reaction-chance", seedOpts.ReactionChance, "Chance each user reacts to each post")
	seedCmd.Flags().BoolVar(&seedOpts.WithProfiles, "profiles", seedOpts.WithProfiles, "Create a profile for each generated user")

	rootCmd.AddCommand(verifyPostCmd, deactivateUserCmd, activateUserCmd, listUsersCmd, pruneSessionsCmd, seedCmd)
}

func runVerifyPost(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	db, release, err := openDB()
	if err != nil {
		return err
	}
	defer release()

	posts := service.NewPostService(repository.NewPostRepository(db))
	post, err := posts.VerifyPost(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("verify post %d: %w", id, err)
	}
	out := cmd.OutOrStdout()
	successColor.Fprintf(out, "✅ Post %d verified", post.ID)
	fmt.Fprintf(out, " (%s)\n", labelColor.Sprint(post.Title))
	return nil
}

func setUserActive(cmd *cobra.Command, arg string, active bool) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	db, release, err := openDB()
	if err != nil {
		return err
	}
	defer release()

	users := repository.NewUserRepository(db)
	user, err := users.GetByID(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("load user %d: %w", id, err)
	}
	if user.IsActive == active {
		warnColor.Fprintf(cmd.OutOrStdout(), "User %s (ID: %d) is already %s\n", user.Username, user.ID, activeLabel(active))
		return nil
	}
	if err := users.SetActive(cmd.Context(), id, active); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	successColor.Fprintf(cmd.OutOrStdout(), "✅ User %s (ID: %d) is now %s\n", user.Username, user.ID, activeLabel(active))
	return nil
}

func runListUsers(cmd *cobra.Command, _ []string) error {
	db, release, err := openDB()
	if err != nil {
		return err
	}
	defer release()

	users, err := repository.NewUserRepository(db).List(cmd.Context(), listLimit, listOffset)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		warnColor.Fprintln(cmd.OutOrStdout(), "No users found")
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"ID", "Username", "Email", "Status", "Joined"})
	for _, u := range users {
		style := tablewriter.Colors{tablewriter.FgGreenColor}
		if !u.IsActive {
			style = tablewriter.Colors{tablewriter.FgRedColor, tablewriter.Bold}
		}
		table.Rich([]string{
			strconv.FormatUint(uint64(u.ID), 10),
			u.Username,
			u.Email,
			activeLabel(u.IsActive),
			u.DateJoined.Format("2006-01-02"),
		}, []tablewriter.Colors{{}, {}, {}, style, {}})
	}
	table.Render()
	return nil
}

func runPruneSessions(cmd *cobra.Command, _ []string) error {
	db, release, err := openDB()
	if err != nil {
		return err
	}
	defer release()

	n, err := repository.NewSessionRepository(db).DeleteExpired(cmd.Context(), time.Now())
	if err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	successColor.Fprintf(cmd.OutOrStdout(), "🧹 Removed %d expired sessions\n", n)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	db, release, err := openDB()
	if err != nil {
		return err
	}
	defer release()

	factory := seed.NewFactory(db, seedRandSeed)

	var sum seed.Summary
	if seedPreset != "" {
		preset, perr := seed.LoadPreset(seedPreset)
		if perr != nil {
			return perr
		}
		sum, err = factory.ApplyPreset(cmd.Context(), preset)
	} else {
		sum, err = factory.Run(cmd.Context(), seedOpts)
	}
	if err != nil {
		return fmt.Errorf("seed: %w (partial: %s)", err, sum)
	}
	successColor.Fprintf(cmd.OutOrStdout(), "🌱 Seeded %s\n", sum)
	return nil
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

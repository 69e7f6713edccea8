package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Browse workspace boards",
	Long: `Browse workspace boards and their posts.

Subcommands:
  list    List boards visible to the current user
  posts   List posts on a board, one page at a time

Examples:
  workbench board list
  workbench board posts b-general --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// boardListCmd lists visible boards
var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		boards, err := app.client.ListBoards(cmd.Context())
		if err != nil {
			return err
		}

		if len(boards) == 0 {
			fmt.Println("No boards.")
			return nil
		}
		for _, b := range boards {
			fmt.Printf("%-20s %-24s %d posts\n", b.ID, b.Name, b.PostCount)
		}
		return nil
	},
}

// boardPostsCmd lists one page of a board's posts
var boardPostsCmd = &cobra.Command{
	Use:   "posts <board-id>",
	Short: "List posts on a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		posts, page, totalPages, err := app.client.ListPosts(cmd.Context(), args[0], page)
		if err != nil {
			return err
		}

		for _, p := range posts {
			attachments := ""
			if n := len(p.Attachments); n > 0 {
				attachments = " [" + strconv.Itoa(n) + " attachments]"
			}
			fmt.Printf("%-12s %s  %s · %s%s\n",
				p.ID, p.CreatedAt.Local().Format("2006-01-02"), p.Title, p.Author, attachments)
		}
		fmt.Printf("Page %d of %d\n", page, totalPages)
		return nil
	},
}

func init() {
	boardPostsCmd.Flags().Int("page", 1, "page number")

	boardCmd.AddCommand(boardListCmd)
	boardCmd.AddCommand(boardPostsCmd)
	rootCmd.AddCommand(boardCmd)
}

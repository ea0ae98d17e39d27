package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage moderator notes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   `add <post-id> "text"`,
		Short: "Add a moderator note to a topic or reply",
		Long:  "Add a private note to a topic or reply. Only moderators of the post's forum can add notes; other moderators subscribed to the topic are emailed.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runNoteAdd,
	})
	return cmd
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	id, err := parseID("post", args[0])
	if err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return fmt.Errorf("note text is required")
	}

	n, err := newAPIClient().AddNote(id, text)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(n)
	}

	printNoteSingle(n)
	return nil
}

func newNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes <post-id>",
		Short: "List moderator notes on a post",
		Long:  "List the moderator notes on a topic or reply, oldest first.",
		Args:  cobra.ExactArgs(1),
		RunE:  runNotes,
	}
}

func runNotes(cmd *cobra.Command, args []string) error {
	id, err := parseID("post", args[0])
	if err != nil {
		return err
	}

	notes, err := newAPIClient().ListNotes(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(notes)
	}

	fmt.Printf("Moderator notes for post #%d:\n\n", id)
	printNoteList(notes)
	return nil
}

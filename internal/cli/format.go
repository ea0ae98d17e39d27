package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/evcraddock/forum-notes/internal/client"
	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/note"
	"github.com/evcraddock/forum-notes/internal/user"
)

const timeLayout = "2006-01-02 15:04"

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printNoteList prints moderator notes in text format.
func printNoteList(notes []*note.Note) {
	if len(notes) == 0 {
		fmt.Println("No notes.")
		return
	}

	for _, n := range notes {
		fmt.Printf("[%s] #%d (%s)\n  %s\n\n",
			n.CreatedAt.Format(timeLayout), n.ID, authorLabel(n.Author.DisplayName), n.Content)
	}
}

// printNoteSingle prints a single note in text format.
func printNoteSingle(n *note.Note) {
	fmt.Printf("Note #%d added to post #%d.\n  %s\n", n.ID, n.ParentID, n.Content)
}

// printCommentList prints comments in text format.
func printCommentList(comments []*comment.Comment) {
	if len(comments) == 0 {
		fmt.Println("No comments.")
		return
	}

	for _, c := range comments {
		fmt.Printf("[%s] #%d on post #%d (%s)\n  %s\n\n",
			c.CreatedAt.Format(timeLayout), c.ID, c.PostID, authorLabel(c.Author), c.Content)
	}
}

// printCommentSingle prints a single comment in text format.
func printCommentSingle(c *comment.Comment) {
	fmt.Printf("Comment #%d added.\n  %s\n", c.ID, c.Content)
}

// printUserTable prints users as a formatted table.
func printUserTable(users []*user.User) error {
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tLOGIN\tNAME\tEMAIL\tKEYMASTER"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t----\t-----\t---------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, u := range users {
		km := ""
		if u.Keymaster {
			km = "yes"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			u.ID, u.Login, truncate(u.Name(), 30), orDash(u.Email), km); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d users\n", len(users))
	return nil
}

// printKeyTable prints API keys as a formatted table.
func printKeyTable(keys []client.APIKey) error {
	if len(keys) == 0 {
		fmt.Println("No API keys.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tPREFIX\tCREATED\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range keys {
		last := "-"
		if k.LastUsedAt != nil {
			last = *k.LastUsedAt
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			k.ID, truncate(k.Name, 30), k.KeyPrefix, k.CreatedAt, last); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

func authorLabel(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

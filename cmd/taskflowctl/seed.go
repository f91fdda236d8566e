package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskflow/models"
	"taskflow/store"
	"taskflow/tasks"
	"taskflow/utils"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@taskflow.com"
	demoPassword = "demo123"
)

type sampleTask struct {
	title      string
	priority   string
	categoryID int64
	status     models.Status
}

var sampleTasks = []sampleTask{
	{title: "Write project plan", priority: "high", categoryID: 1, status: models.StatusInProgress},
	{title: "Prepare team meeting", priority: "medium", categoryID: 4, status: models.StatusPending},
	{title: "Finish code review", priority: "high", categoryID: 1, status: models.StatusCompleted},
	{title: "Work out for 30 minutes", priority: "low", categoryID: 2, status: models.StatusPending},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo user with sample tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			return seedDemo(ctx, s, cmd.OutOrStdout())
		},
	}
}

// seedDemo creates the demo account and its sample tasks. An existing demo
// account is left untouched.
func seedDemo(ctx context.Context, s store.Store, out io.Writer) error {
	_, err := s.GetUserByLogin(ctx, demoUsername)
	if err == nil {
		fmt.Fprintln(out, "demo user already exists, skipping")
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	userID, err := s.CreateUser(ctx, &models.User{
		Username:     demoUsername,
		Email:        demoEmail,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}
	fmt.Fprintf(out, "demo user created (username: %s, password: %s)\n", demoUsername, demoPassword)

	svc := tasks.NewService(s)
	for i, st := range sampleTasks {
		categoryID := st.categoryID
		res, err := svc.Create(ctx, userID, tasks.CreateInput{
			Title:      st.title,
			Priority:   st.priority,
			CategoryID: &categoryID,
		})
		if err != nil {
			return fmt.Errorf("creating sample task %q: %w", st.title, err)
		}
		patch := fmt.Sprintf(`{"status":%q,"position":%d}`, st.status, i)
		if err := svc.Update(ctx, userID, res.ID, []byte(patch)); err != nil {
			return fmt.Errorf("updating sample task %q: %w", st.title, err)
		}
	}
	fmt.Fprintf(out, "%d sample tasks created\n", len(sampleTasks))
	return nil
}

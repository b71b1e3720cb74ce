package deadline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/testutil"
)

var now = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func create(t *testing.T, svc deadline.Service, title string, due time.Time, category ...string) deadline.Deadline {
	t.Helper()
	nd := deadline.NewDeadline{Title: title, DueDate: due}
	if len(category) > 0 {
		nd.CategoryID = strPtr(category[0])
	}
	d, err := svc.Create(context.Background(), nd)
	require.NoError(t, err)
	return d
}

func TestNewDeadline_Validate(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()

	tests := []struct {
		name    string
		nd      deadline.NewDeadline
		wantErr bool
	}{
		{name: "valid", nd: deadline.NewDeadline{Title: "Analysis draft", DueDate: now}},
		{name: "valid with category", nd: deadline.NewDeadline{Title: "Design", DueDate: now, CategoryID: strPtr("section-b")}},
		{name: "blank title", nd: deadline.NewDeadline{Title: "  ", DueDate: now}, wantErr: true},
		{name: "no due date", nd: deadline.NewDeadline{Title: "Testing"}, wantErr: true},
		{name: "unknown category", nd: deadline.NewDeadline{Title: "Design", DueDate: now, CategoryID: strPtr("lol")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nd := tt.nd
			err := nd.Validate(ctx, svcs.Validate, svcs.Settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_CRUD(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()
	testutil.FreezeTime(t, now)

	late := create(t, svcs.Deadlines, "Final submission", now.Add(30*24*time.Hour))
	early := create(t, svcs.Deadlines, "Analysis draft", now.Add(24*time.Hour), "section-a")

	list, err := svcs.Deadlines.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []deadline.Deadline{early, late}, list)

	got, err := svcs.Deadlines.GetByID(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, early, got)

	updated, err := svcs.Deadlines.Update(ctx, early.ID, deadline.UpdateDeadline{Completed: boolPtr(true), CategoryID: strPtr("")})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Nil(t, updated.CategoryID)
	assert.Equal(t, early.Title, updated.Title)

	moved, err := svcs.Deadlines.Update(ctx, late.ID, deadline.UpdateDeadline{Title: "Final hand-in", DueDate: now.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "Final hand-in", moved.Title)

	list, err = svcs.Deadlines.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{late.ID, early.ID}, []string{list[0].ID, list[1].ID})

	require.NoError(t, svcs.Deadlines.Delete(ctx, early.ID))
	_, err = svcs.Deadlines.GetByID(ctx, early.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(svcs.Deadlines.Delete(ctx, early.ID)))

	_, err = svcs.Deadlines.Update(ctx, "missing", deadline.UpdateDeadline{Title: "x"})
	assert.Equal(t, deadline.ErrNotFound, err)
}

func TestService_Upcoming(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()

	past := create(t, svcs.Deadlines, "Past", now.Add(-time.Hour))
	soon := create(t, svcs.Deadlines, "Soon", now.Add(48*time.Hour))
	edge := create(t, svcs.Deadlines, "Edge", now.Add(7*24*time.Hour))
	later := create(t, svcs.Deadlines, "Later", now.Add(8*24*time.Hour))
	done := create(t, svcs.Deadlines, "Done", now.Add(time.Hour))
	_, err := svcs.Deadlines.Update(ctx, done.ID, deadline.UpdateDeadline{Completed: boolPtr(true)})
	require.NoError(t, err)

	got, err := svcs.Deadlines.Upcoming(ctx, now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []deadline.Deadline{soon, edge}, got)
	assert.NotContains(t, got, past)
	assert.NotContains(t, got, later)
}

func TestReminder_Send(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()
	week := 7 * 24 * time.Hour

	reminder := deadline.NewReminder(svcs.Deadlines, svcs.Mail, svcs.Conf.TeacherEmail)

	// nothing due: nothing sent
	sent, err := reminder.Send(ctx, now, week)
	require.NoError(t, err)
	assert.Empty(t, sent)
	assert.Empty(t, svcs.Mail.SentMessages())

	create(t, svcs.Deadlines, "Development checkpoint", now.Add(72*time.Hour), "section-c")
	create(t, svcs.Deadlines, "Far away", now.Add(60*24*time.Hour))

	sent, err = reminder.Send(ctx, now, week)
	require.NoError(t, err)
	require.Len(t, sent, 1)

	msgs := svcs.Mail.SentMessages()
	require.Len(t, msgs, 1)
	msg := msgs[0]
	assert.Equal(t, "teacher@test.local", msg.To[0].Address)
	assert.Equal(t, "1 coursework deadline(s) coming up", msg.Subject)
	assert.Contains(t, msg.TextContent, "Development checkpoint: due Thu 7 Mar 2024 (section-c)")
	assert.NotContains(t, msg.TextContent, "Far away")
	assert.Contains(t, msg.HTMLContent, "Development checkpoint")

	_, err = deadline.NewReminder(svcs.Deadlines, svcs.Mail, "").Send(ctx, now, week)
	assert.ErrorIs(t, err, deadline.ErrNoRecipient)
}

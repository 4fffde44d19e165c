package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	exeBytes = append([]byte("MZ\x90\x00\x03\x00\x00\x00"), make([]byte, 64)...)
)

type recordingDispatcher struct {
	published []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	r.published = append(r.published, e)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (r *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, 0, len(r.published))
	for _, e := range r.published {
		out = append(out, e.Type)
	}
	return out
}

// flakyBlobs fails the n-th Put, or every Delete.
type flakyBlobs struct {
	storage.BlobStore
	failPutAt  int
	failDelete bool
	puts       int
}

func (f *flakyBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	f.puts++
	if f.puts == f.failPutAt {
		return errors.New("disk full")
	}
	return f.BlobStore.Put(ctx, key, body, size, contentType)
}

func (f *flakyBlobs) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("permission denied")
	}
	return f.BlobStore.Delete(ctx, key)
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	blobs     *flakyBlobs
	root      string
	events    *recordingDispatcher
	tickets   *TicketService
	dashboard *DashboardService

	employee domain.Viewer
	other    domain.Viewer
	staff1   domain.Viewer
	staff2   domain.Viewer
	manager  domain.Viewer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	root := t.TempDir()
	local, err := storage.NewLocalStore(root)
	require.NoError(t, err)
	blobs := &flakyBlobs{BlobStore: local}
	dispatcher := &recordingDispatcher{}

	f := &fixture{
		ctx:    ctx,
		store:  store,
		blobs:  blobs,
		root:   root,
		events: dispatcher,
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Blobs:      blobs,
			Dispatcher: dispatcher,
		}),
		dashboard: NewDashboardService(store),
	}
	f.employee = f.addUser(t, "Test Employee", "employee@example.com", domain.RoleEmployee)
	f.other = f.addUser(t, "Other Employee", "other@example.com", domain.RoleEmployee)
	f.staff1 = f.addUser(t, "John Smith", "john@example.com", domain.RoleITStaff)
	f.staff2 = f.addUser(t, "Sarah Johnson", "sarah@example.com", domain.RoleITStaff)
	f.manager = f.addUser(t, "IT Manager", "manager@example.com", domain.RoleITManager)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role domain.Role) domain.Viewer {
	t.Helper()
	user := &domain.User{Name: name, Email: email, Role: role}
	require.NoError(t, f.store.Users().Create(f.ctx, user))
	return user.Viewer()
}

func (f *fixture) create(t *testing.T, viewer domain.Viewer, title string, uploads ...Upload) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, viewer, CreateTicketInput{
		Title:       title,
		Description: "Laptop will not boot",
		Priority:    domain.TicketPriorityMedium,
		Department:  "HR",
		Attachments: uploads,
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) blobCount(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(f.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func upload(name string, data []byte) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func strPtr(s string) *string {
	return &s
}

func domainErr(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de
}

func allTickets() repository.TicketFilter {
	return repository.TicketFilter{Scope: access.Scope{Kind: access.ScopeAll}}
}

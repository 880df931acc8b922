package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/checkout"
	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	testhelpers "github.com/polkiloo/paperdesk/internal/test"
)

type orderFixture struct {
	client, writer, admin, stranger model.Profile
	order                           model.Order
	orders                          *testhelpers.OrderRepositoryStub
	attachments                     *testhelpers.AttachmentRepositoryStub
	objects                         *testhelpers.ObjectStoreStub
	uc                              *OrderUseCase
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		client:   activeProfile("client@example.com"),
		writer:   activeProfile("writer@example.com"),
		admin:    activeProfile("admin@example.com"),
		stranger: activeProfile("stranger@example.com"),
	}
	f.writer.IsWriter = true
	f.admin.IsAdmin = true
	writerID := f.writer.ID
	f.order = model.Order{ID: uuid.New(), UserID: f.client.ID, WriterID: &writerID, Status: model.OrderStatusAssigned}

	profiles := testhelpers.NewProfileRepositoryStub(f.client, f.writer, f.admin, f.stranger)
	f.orders = testhelpers.NewOrderRepositoryStub(f.order)
	f.attachments = testhelpers.NewAttachmentRepositoryStub()
	f.objects = testhelpers.NewObjectStoreStub()
	f.uc = NewOrderUseCase(f.orders, f.attachments, f.objects, newCapabilities(profiles), discardLogger())
	return f
}

func TestOrderUseCaseLists(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	own, err := f.uc.ListByUser(ctx, f.client.ID)
	if err != nil || len(own) != 1 {
		t.Fatalf("expected one client order, got %d, %v", len(own), err)
	}
	assigned, err := f.uc.ListByWriter(ctx, f.writer.ID)
	if err != nil || len(assigned) != 1 {
		t.Fatalf("expected one writer order, got %d, %v", len(assigned), err)
	}
	none, err := f.uc.ListByWriter(ctx, f.stranger.ID)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no orders, got %d, %v", len(none), err)
	}
}

func TestOrderUseCaseGetPermissions(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	for _, viewer := range []model.Profile{f.client, f.writer, f.admin} {
		if _, err := f.uc.Get(ctx, viewer.ID, f.order.ID); err != nil {
			t.Fatalf("%s should see the order: %v", viewer.Email, err)
		}
	}
	if _, err := f.uc.Get(ctx, f.stranger.ID, f.order.ID); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.uc.Get(ctx, f.client.ID, uuid.New()); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderUseCaseAttachmentRoundTrip(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	attachment, err := f.uc.AddAttachment(ctx, f.writer.ID, f.order.ID, checkout.Upload{
		FileName:    "../draft v1.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        []byte("chapter one"),
	})
	if err != nil {
		t.Fatalf("add attachment: %v", err)
	}
	if attachment.OwnerID != f.writer.ID {
		t.Fatalf("expected writer to own the upload, got %v", attachment.OwnerID)
	}
	prefix := f.client.ID.String() + "/" + f.order.ID.String() + "/"
	if !strings.HasPrefix(attachment.StoragePath, prefix) {
		t.Fatalf("unexpected storage path %q", attachment.StoragePath)
	}

	order, err := f.uc.Get(ctx, f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(order.Attachments) != 1 {
		t.Fatalf("expected attachment on order, got %d", len(order.Attachments))
	}

	meta, body, err := f.uc.OpenAttachment(ctx, f.client.ID, attachment.ID)
	if err != nil {
		t.Fatalf("open attachment: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "chapter one" || meta.ID != attachment.ID {
		t.Fatalf("unexpected content %q", data)
	}

	if _, _, err := f.uc.OpenAttachment(ctx, f.stranger.ID, attachment.ID); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden download, got %v", err)
	}
	if _, err := f.uc.AddAttachment(ctx, f.stranger.ID, f.order.ID, checkout.Upload{FileName: "x.txt"}); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden upload, got %v", err)
	}
}

func TestOrderUseCaseAttachmentStoreFailure(t *testing.T) {
	f := newOrderFixture()
	f.objects.PutFn = func(string) error { return errors.New("disk full") }

	if _, err := f.uc.AddAttachment(context.Background(), f.client.ID, f.order.ID, checkout.Upload{FileName: "notes.txt", Data: []byte("x")}); err == nil {
		t.Fatal("expected error")
	}
	if len(f.attachments.ByID) != 0 {
		t.Fatal("no attachment row expected when the upload fails")
	}
}

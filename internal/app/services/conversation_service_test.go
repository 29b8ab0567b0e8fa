package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/pkg/apperrors"
)

func TestConversationLifecycle(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversationService(store, zerolog.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !strings.HasPrefix(conv.ConversationID, "conv_") {
		t.Errorf("expected generated id, got %q", conv.ConversationID)
	}

	msg, err := svc.AppendMessage(ctx, 7, conv.ConversationID, models.RoleUser, "你好")
	if err != nil {
		t.Fatalf("AppendMessage returned error: %v", err)
	}
	if !strings.HasPrefix(msg.MessageID, "msg_") {
		t.Errorf("expected generated message id, got %q", msg.MessageID)
	}

	loaded, err := svc.Get(ctx, 7, conv.ConversationID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].Content != "你好" {
		t.Error("transcript should contain the appended message")
	}

	if err := svc.UpdateTitle(ctx, 7, conv.ConversationID, "选课咨询"); err != nil {
		t.Fatalf("UpdateTitle returned error: %v", err)
	}

	credits := 3.0
	criteria := models.Criteria{CourseType: models.CourseTypeElective, Credits: &credits}
	if err := svc.UpdateContext(ctx, 7, conv.ConversationID, criteria); err != nil {
		t.Fatalf("UpdateContext returned error: %v", err)
	}

	loaded, err = svc.Get(ctx, 7, conv.ConversationID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loaded.Title != "选课咨询" {
		t.Errorf("title not updated, got %q", loaded.Title)
	}
	if loaded.Criteria.CourseType != models.CourseTypeElective {
		t.Error("criteria not updated")
	}

	if err := svc.Delete(ctx, 7, conv.ConversationID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, 7, conv.ConversationID); !errors.Is(err, apperrors.ErrConversationNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestConversationOwnershipIsEnforced(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversationService(store, zerolog.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Get(ctx, 8, conv.ConversationID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("expected permission denied for foreign user, got %v", err)
	}
}

func TestConversationDuplicateIDConflicts(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversationService(store, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, "conv_fixed"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(ctx, 7, "conv_fixed"); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("expected conflict on duplicate id, got %v", err)
	}
}

func TestConversationValidation(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversationService(store, zerolog.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, 7, "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.AppendMessage(ctx, 7, conv.ConversationID, models.RoleUser, "   "); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("expected validation failure for blank message, got %v", err)
	}
	if err := svc.UpdateTitle(ctx, 7, conv.ConversationID, ""); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("expected validation failure for empty title, got %v", err)
	}
}

func TestConversationDeleteAll(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversationService(store, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, 7, ""); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if _, err := svc.Create(ctx, 8, ""); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	count, err := svc.DeleteAll(ctx, 7)
	if err != nil {
		t.Fatalf("DeleteAll returned error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 deleted conversations, got %d", count)
	}

	remaining, err := svc.List(ctx, 8)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("other user's conversations should survive, got %d", len(remaining))
	}
}

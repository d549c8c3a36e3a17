package documents

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/notifications"
	cryptoutil "dayflow/internal/platform/crypto"
	"dayflow/internal/platform/validate"
)

type Service struct {
	store    StoreAPI
	crypto   *cryptoutil.Service
	notifier Notifier
}

func NewService(store StoreAPI, crypto *cryptoutil.Service, notifier Notifier) *Service {
	return &Service{store: store, crypto: crypto, notifier: notifier}
}

func canAccess(actor auth.UserContext, ownerID string) bool {
	return actor.IsAdmin() || actor.UserID == ownerID
}

// visible hides private documents from everyone but admins.
func visible(actor auth.UserContext, doc Document) bool {
	return actor.IsAdmin() || (doc.UserID == actor.UserID && !doc.IsPrivate)
}

func canDelete(actor auth.UserContext, doc Document) bool {
	if actor.IsAdmin() {
		return true
	}
	return doc.UserID == actor.UserID && !isProtected(doc)
}

func (s *Service) Upload(ctx context.Context, actor auth.UserContext, ownerID string, in UploadInput) (Document, error) {
	if !canAccess(actor, ownerID) {
		return Document{}, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	in.FileName = filepath.Base(strings.TrimSpace(in.FileName))
	if err := validate.Struct(in); err != nil {
		return Document{}, err
	}
	if in.IsPrivate && !actor.IsAdmin() {
		return Document{}, validate.Field("isPrivate", "can only be set by an admin")
	}
	exists, err := s.store.UserExists(ctx, ownerID)
	if err != nil {
		return Document{}, err
	}
	if !exists {
		return Document{}, ErrNotFound
	}

	raw, contentType, err := decodeContent(in.Data)
	if err != nil {
		return Document{}, err
	}
	sealed, err := s.crypto.Encrypt(raw)
	if err != nil {
		return Document{}, fmt.Errorf("encrypt document: %w", err)
	}

	doc, err := s.store.Insert(ctx, NewDocument{
		UserID:         ownerID,
		Title:          in.Title,
		FileName:       in.FileName,
		ContentType:    contentType,
		FileSize:       int64(len(raw)),
		Content:        sealed,
		UploadedBy:     actor.UserID,
		UploadedByRole: actor.Role,
		IsPrivate:      in.IsPrivate,
	})
	if err != nil {
		return Document{}, err
	}

	if s.notifier != nil && actor.UserID != ownerID && !doc.IsPrivate {
		body := fmt.Sprintf("HR shared %q with you.", doc.Title)
		if err := s.notifier.Create(ctx, ownerID, notifications.TypeDocumentShared, "New document", body); err != nil {
			slog.Warn("document notification failed", "documentId", doc.ID, "err", err)
		}
	}
	doc.Deletable = canDelete(actor, doc)
	return doc, nil
}

func (s *Service) List(ctx context.Context, actor auth.UserContext, ownerID string) ([]Document, error) {
	if !canAccess(actor, ownerID) {
		return nil, ErrForbidden
	}
	docs, err := s.store.List(ctx, ListFilter{UserID: ownerID, IncludePrivate: actor.IsAdmin()})
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Deletable = canDelete(actor, docs[i])
	}
	return docs, nil
}

func (s *Service) get(ctx context.Context, actor auth.UserContext, id string) (Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !visible(actor, doc) {
		return Document{}, ErrNotFound
	}
	doc.Deletable = canDelete(actor, doc)
	return doc, nil
}

// Download returns the metadata and decrypted file bytes.
func (s *Service) Download(ctx context.Context, actor auth.UserContext, id string) (Document, []byte, error) {
	doc, err := s.get(ctx, actor, id)
	if err != nil {
		return Document{}, nil, err
	}
	sealed, err := s.store.Content(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	raw, err := s.crypto.Decrypt(sealed)
	if err != nil {
		return Document{}, nil, fmt.Errorf("decrypt document: %w", err)
	}
	return doc, raw, nil
}

// Delete returns the removed document for the audit trail.
func (s *Service) Delete(ctx context.Context, actor auth.UserContext, id string) (Document, error) {
	doc, err := s.get(ctx, actor, id)
	if err != nil {
		return Document{}, err
	}
	if !canDelete(actor, doc) {
		if doc.UserID == actor.UserID {
			return Document{}, ErrProtected
		}
		return Document{}, ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return Document{}, err
	}
	return doc, nil
}

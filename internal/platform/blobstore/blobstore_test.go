package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestUploadAndDownload(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()

	meta, err := store.Upload(ctx, BlobMetadata{
		FileName:    "receipt.pdf",
		ContentType: "application/pdf",
		DoctorID:    "doc-1",
	}, strings.NewReader("proof bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if meta.ID == "" {
		t.Error("expected generated ID")
	}
	if meta.Size != int64(len("proof bytes")) {
		t.Errorf("Size = %d", meta.Size)
	}
	if meta.Hash == "" {
		t.Error("expected SHA-256 hash")
	}

	rc, got, err := store.Download(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "proof bytes" {
		t.Errorf("content = %q", data)
	}
	if got.DoctorID != "doc-1" {
		t.Errorf("DoctorID = %q", got.DoctorID)
	}
}

func TestUploadRejectsMissingFileName(t *testing.T) {
	store := NewInMemoryBlobStore()
	_, err := store.Upload(context.Background(), BlobMetadata{ContentType: "image/png"}, strings.NewReader("x"))
	if !errors.Is(err, ErrMissingFileName) {
		t.Fatalf("err = %v, want ErrMissingFileName", err)
	}
}

func TestUploadRejectsDisallowedContentType(t *testing.T) {
	store := NewInMemoryBlobStore()
	_, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "malware.exe",
		ContentType: "application/octet-stream",
	}, strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("err = %v, want ErrInvalidContentType", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	store := NewInMemoryBlobStore()
	big := strings.NewReader(strings.Repeat("a", MaxFileSize+1))
	_, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "huge.png",
		ContentType: "image/png",
	}, big)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()
	meta, err := store.Upload(ctx, BlobMetadata{
		FileName:    "r.jpg",
		ContentType: "image/jpeg",
	}, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("second Delete err = %v, want ErrBlobNotFound", err)
	}
	if _, _, err := store.Download(ctx, meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Download err = %v, want ErrBlobNotFound", err)
	}
}

func TestListByDoctor(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()
	for _, name := range []string{"a.png", "b.png"} {
		if _, err := store.Upload(ctx, BlobMetadata{
			FileName:    name,
			ContentType: "image/png",
			DoctorID:    "doc-1",
		}, strings.NewReader(name)); err != nil {
			t.Fatalf("Upload: %v", err)
		}
	}
	if _, err := store.Upload(ctx, BlobMetadata{
		FileName:    "c.png",
		ContentType: "image/png",
		DoctorID:    "doc-2",
	}, strings.NewReader("c")); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	list, err := store.ListByDoctor(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListByDoctor: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d proofs, want 2", len(list))
	}
}

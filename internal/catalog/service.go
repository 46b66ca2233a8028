package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/averyross/bookhaven-backend/pkg/db/models"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookDetail extends the summary with the fields only the detail page shows.
type BookDetail struct {
	BookSummary
	Description string `json:"description"`
	AuthorBio   string `json:"authorBio"`
	IsFeatured  bool   `json:"isFeatured"`
}

// ListResult is one page of catalog browsing.
type ListResult struct {
	Books      []BookSummary `json:"books"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// AuthorSummary is the listing row for the authors index.
type AuthorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// AuthorDetail is the author page: the author plus their published books.
type AuthorDetail struct {
	AuthorSummary
	Books []BookSummary `json:"books"`
}

type bookRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListBooks(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Book, string, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Book, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListAuthors(ctx context.Context) ([]models.Author, error)
	FindAuthorByID(ctx context.Context, id uuid.UUID) (*models.Author, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Book, error)
}

// Service exposes read operations over the book catalog.
type Service interface {
	ListBooks(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error)
	GetBook(ctx context.Context, id uuid.UUID) (*BookDetail, error)
	Featured(ctx context.Context, limit int) ([]BookSummary, error)
	Categories(ctx context.Context) ([]string, error)
	Authors(ctx context.Context) ([]AuthorSummary, error)
	GetAuthor(ctx context.Context, id uuid.UUID) (*AuthorDetail, error)
}

type service struct {
	repo bookRepo
}

// NewService builds the catalog service.
func NewService(repo bookRepo) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListBooks(ctx context.Context, filters ListFilters, page pagination.Params) (*ListResult, error) {
	rows, nextCursor, err := s.repo.ListBooks(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing books")
	}

	books := make([]BookSummary, 0, len(rows))
	for i := range rows {
		books = append(books, SummaryFromModel(&rows[i]))
	}
	return &ListResult{Books: books, NextCursor: nextCursor}, nil
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*BookDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching book")
	}

	return &BookDetail{
		BookSummary: SummaryFromModel(book),
		Description: book.Description,
		AuthorBio:   book.Author.Bio,
		IsFeatured:  book.IsFeatured,
	}, nil
}

func (s *service) Featured(ctx context.Context, limit int) ([]BookSummary, error) {
	rows, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing featured books")
	}

	books := make([]BookSummary, 0, len(rows))
	for i := range rows {
		books = append(books, SummaryFromModel(&rows[i]))
	}
	return books, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing categories")
	}
	return categories, nil
}

func (s *service) Authors(ctx context.Context) ([]AuthorSummary, error) {
	rows, err := s.repo.ListAuthors(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing authors")
	}

	authors := make([]AuthorSummary, 0, len(rows))
	for i := range rows {
		authors = append(authors, authorSummaryFromModel(&rows[i]))
	}
	return authors, nil
}

func (s *service) GetAuthor(ctx context.Context, id uuid.UUID) (*AuthorDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author id is required")
	}

	author, err := s.repo.FindAuthorByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "author not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching author")
	}

	rows, err := s.repo.ListByAuthor(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing author books")
	}

	books := make([]BookSummary, 0, len(rows))
	for i := range rows {
		books = append(books, SummaryFromModel(&rows[i]))
	}
	return &AuthorDetail{
		AuthorSummary: authorSummaryFromModel(author),
		Books:         books,
	}, nil
}

func authorSummaryFromModel(author *models.Author) AuthorSummary {
	return AuthorSummary{
		ID:   author.ID.String(),
		Name: author.Name,
		Bio:  author.Bio,
	}
}

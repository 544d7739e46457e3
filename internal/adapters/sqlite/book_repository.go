package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/atvirokodosprendimai/booksapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/booksapi/internal/core/domain"
)

type bookModel struct {
	ISBN      string    `gorm:"column:isbn;primaryKey"`
	AmazonURL string    `gorm:"column:amazon_url;not null"`
	Author    string    `gorm:"column:author;not null"`
	Language  string    `gorm:"column:language;not null"`
	Pages     int       `gorm:"column:pages;not null"`
	Publisher string    `gorm:"column:publisher;not null"`
	Title     string    `gorm:"column:title;not null"`
	Year      int       `gorm:"column:year;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (bookModel) TableName() string {
	return "books"
}

type BookRepository struct {
	db  *gormsqlite.DB
	now func() time.Time
}

func NewBookRepository(db *gormsqlite.DB) *BookRepository {
	return &BookRepository{db: db, now: time.Now}
}

func (r *BookRepository) FindAll(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	var models []bookModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&bookModel{})
		if filter.Author != "" {
			query = query.Where("author = ?", filter.Author)
		}
		if filter.Language != "" {
			query = query.Where("language = ?", filter.Language)
		}
		if filter.Publisher != "" {
			query = query.Where("publisher = ?", filter.Publisher)
		}
		if filter.Title != "" {
			query = query.Where("title = ?", filter.Title)
		}
		if filter.Year != nil {
			query = query.Where("year = ?", *filter.Year)
		}
		return query.Order("title ASC").Order("isbn ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books := make([]domain.Book, 0, len(models))
	for _, m := range models {
		books = append(books, toDomain(m))
	}
	return books, nil
}

func (r *BookRepository) FindOne(ctx context.Context, isbn string) (domain.Book, error) {
	var model bookModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("isbn = ?", isbn).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, &domain.NotFoundError{ISBN: isbn}
		}
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	return toDomain(model), nil
}

// Create inserts book. The existence check and the insert share the single
// writer connection, so two creates for one isbn cannot both pass the check.
func (r *BookRepository) Create(ctx context.Context, book domain.Book) (domain.Book, error) {
	now := r.now().UTC()
	model := toModel(book)
	model.CreatedAt = now
	model.UpdatedAt = now

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var count int64
		if err := tx.Model(&bookModel{}).Where("isbn = ?", book.ISBN).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &domain.DuplicateError{ISBN: book.ISBN}
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		var dup *domain.DuplicateError
		if errors.As(err, &dup) {
			return domain.Book{}, dup
		}
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	return toDomain(model), nil
}

func (r *BookRepository) Update(ctx context.Context, isbn string, patch domain.BookPatch) (domain.Book, error) {
	var model bookModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("isbn = ?", isbn).First(&model).Error; err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}

		cols := patch.Columns()
		cols["updated_at"] = r.now().UTC()
		if err := tx.Model(&bookModel{}).Where("isbn = ?", isbn).Updates(cols).Error; err != nil {
			return err
		}
		return tx.Where("isbn = ?", isbn).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, &domain.NotFoundError{ISBN: isbn}
		}
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	return toDomain(model), nil
}

func (r *BookRepository) Remove(ctx context.Context, isbn string) error {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("isbn = ?", isbn).Delete(&bookModel{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{ISBN: isbn}
	}
	return nil
}

func toModel(b domain.Book) bookModel {
	return bookModel{
		ISBN:      b.ISBN,
		AmazonURL: b.AmazonURL,
		Author:    b.Author,
		Language:  b.Language,
		Pages:     b.Pages,
		Publisher: b.Publisher,
		Title:     b.Title,
		Year:      b.Year,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toDomain(m bookModel) domain.Book {
	return domain.Book{
		ISBN:      m.ISBN,
		AmazonURL: m.AmazonURL,
		Author:    m.Author,
		Language:  m.Language,
		Pages:     m.Pages,
		Publisher: m.Publisher,
		Title:     m.Title,
		Year:      m.Year,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

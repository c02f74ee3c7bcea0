package books

import (
	"context"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the book catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	Save(ctx context.Context, book *models.Book) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	List(ctx context.Context) ([]models.Book, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a book repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

func (r *repository) Save(ctx context.Context, book *models.Book) (*models.Book, error) {
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]any{
			"title":     book.Title,
			"author":    book.Author,
			"cover":     book.Cover,
			"daily_fee": book.DailyFee,
			"inventory": book.Inventory,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, book.ID)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repository) List(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Order("title ASC").
		Order("id ASC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

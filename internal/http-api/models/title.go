package models

import "time"

type Title struct {
	ID          int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"name" gorm:"size:256;not null"`
	Year        int     `json:"year" gorm:"not null"`
	Description string  `json:"description" gorm:"type:text"`
	// Rating is the rounded average of the title's review scores.
	// NULL while the title has no reviews. Written only by the review
	// repository's recompute path.
	Rating     *int      `json:"rating" gorm:"type:smallint"`
	CategoryID *int64    `json:"-" gorm:"index"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Associations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Genres   []Genre   `json:"genre,omitempty" gorm:"many2many:title_genres;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}

// explicit join model so the association table keeps its own id
type TitleGenre struct {
	ID      int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleID int64 `json:"title_id" gorm:"index;not null"`
	GenreID int64 `json:"genre_id" gorm:"index;not null"`
}

func (TitleGenre) TableName() string {
	return "title_genres"
}

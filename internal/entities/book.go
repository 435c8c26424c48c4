package entities

import "time"

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256;not null" json:"name"`
	Gender    string    `gorm:"size:20" json:"gender,omitempty"`
	Biography string    `gorm:"type:text" json:"biography,omitempty"`
	Books     []Book    `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnknownAuthor is used whenever an imported record carries no author name.
const UnknownAuthor = "Unknown Author"

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Book is one physical copy in the library. ISBN uniqueness is enforced by a
// partial index that ignores empty values, see database.Migrate.
type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:512;not null" json:"title"`
	AuthorID    uint      `gorm:"index" json:"author_id"`
	Author      Author    `gorm:"foreignKey:AuthorID" json:"author"`
	ISBN        string    `gorm:"column:isbn;size:20;index" json:"isbn,omitempty"`
	Language    string    `gorm:"size:50;index" json:"language,omitempty"`
	Publisher   string    `gorm:"size:256" json:"publisher,omitempty"`
	PublishYear int       `json:"publish_year,omitempty"`
	Pages       int       `json:"pages,omitempty"`
	Owner       string    `gorm:"size:256" json:"owner,omitempty"` // free-text owner name
	OwnerID     *uint     `gorm:"index" json:"owner_id,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CoverImage  string    `gorm:"type:text" json:"cover_image,omitempty"`
	LocationID  *uint     `gorm:"index" json:"location_id,omitempty"`
	Location    *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`

	Categories      []Category      `gorm:"many2many:book_categories;" json:"categories"`
	Tags            []Tag           `gorm:"many2many:book_tags;" json:"tags"`
	ReadingStatuses []ReadingStatus `gorm:"foreignKey:BookID" json:"reading_statuses,omitempty"`
	Loans           []Loan          `gorm:"foreignKey:BookID" json:"loans,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusFor returns the effective status of the book for a user, based on the
// preloaded ReadingStatuses.
func (b *Book) StatusFor(userID uint) Status {
	for i := range b.ReadingStatuses {
		if b.ReadingStatuses[i].UserID == userID {
			return EffectiveStatus(&b.ReadingStatuses[i])
		}
	}
	return EffectiveStatus(nil)
}

// ActiveLoan returns the open loan among the preloaded Loans, if any.
func (b *Book) ActiveLoan() *Loan {
	for i := range b.Loans {
		if b.Loans[i].IsActive() {
			return &b.Loans[i]
		}
	}
	return nil
}

// CategoryNames returns the names of the preloaded categories in order.
func (b *Book) CategoryNames() []string {
	names := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		names = append(names, c.Name)
	}
	return names
}

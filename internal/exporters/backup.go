// Package exporters writes the library out as a JSON backup or a flat CSV
// file. The JSON document is the format importers.JSONConverter reads back.
package exporters

import (
	"time"

	"github.com/mrlokans/biblion/internal/entities"
)

// BackupVersion is written into every JSON backup.
const BackupVersion = "1.0"

// Backup is the JSON backup document. Keys are camelCase so older backups
// stay readable.
type Backup struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exportedAt"`
	ExportUser string       `json:"exportUser"`
	Books      []BackupBook `json:"books"`
}

type BackupBook struct {
	ID              uint             `json:"id"`
	Title           string           `json:"title"`
	Author          BackupAuthor     `json:"author"`
	ISBN            string           `json:"isbn,omitempty"`
	Language        string           `json:"language,omitempty"`
	Publisher       string           `json:"publisher,omitempty"`
	PublishYear     int              `json:"publishYear,omitempty"`
	Pages           int              `json:"pages,omitempty"`
	Owner           string           `json:"owner,omitempty"`
	Description     string           `json:"description,omitempty"`
	CoverImage      string           `json:"coverImage,omitempty"`
	Categories      []BackupCategory `json:"categories"`
	Tags            []string         `json:"tags"`
	ReadingStatuses []BackupStatus   `json:"readingStatuses"`
	Loans           []BackupLoan     `json:"loans"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type BackupAuthor struct {
	Name   string `json:"name"`
	Gender string `json:"gender,omitempty"`
}

type BackupCategory struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type BackupUser struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BackupStatus struct {
	Status    entities.Status `json:"status"`
	UpdatedAt time.Time       `json:"updatedAt"`
	User      BackupUser      `json:"user"`
}

type BackupLoan struct {
	BorrowerName   string          `json:"borrowerName"`
	BorrowedAt     time.Time       `json:"borrowedAt"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	ReturnedAt     *time.Time      `json:"returnedAt,omitempty"`
	PreviousStatus entities.Status `json:"previousStatus,omitempty"`
	User           BackupUser      `json:"user"`
}

// NewBackup converts books loaded with their author, categories, tags,
// reading statuses with users, and loans with lenders.
func NewBackup(books []entities.Book, exportUser string, exportedAt time.Time) Backup {
	out := Backup{
		Version:    BackupVersion,
		ExportedAt: exportedAt.UTC(),
		ExportUser: exportUser,
		Books:      make([]BackupBook, 0, len(books)),
	}
	for _, b := range books {
		out.Books = append(out.Books, backupBook(b))
	}
	return out
}

func backupBook(b entities.Book) BackupBook {
	bb := BackupBook{
		ID:              b.ID,
		Title:           b.Title,
		Author:          BackupAuthor{Name: b.Author.Name, Gender: b.Author.Gender},
		ISBN:            b.ISBN,
		Language:        b.Language,
		Publisher:       b.Publisher,
		PublishYear:     b.PublishYear,
		Pages:           b.Pages,
		Owner:           b.Owner,
		Description:     b.Description,
		CoverImage:      b.CoverImage,
		Categories:      make([]BackupCategory, 0, len(b.Categories)),
		Tags:            make([]string, 0, len(b.Tags)),
		ReadingStatuses: make([]BackupStatus, 0, len(b.ReadingStatuses)),
		Loans:           make([]BackupLoan, 0, len(b.Loans)),
		CreatedAt:       b.CreatedAt.UTC(),
		UpdatedAt:       b.UpdatedAt.UTC(),
	}
	for _, c := range b.Categories {
		bb.Categories = append(bb.Categories, BackupCategory{Name: c.Name, Color: c.Color, Icon: c.Icon})
	}
	for _, t := range b.Tags {
		bb.Tags = append(bb.Tags, t.Name)
	}
	for _, rs := range b.ReadingStatuses {
		bb.ReadingStatuses = append(bb.ReadingStatuses, BackupStatus{
			Status:    rs.Status,
			UpdatedAt: rs.UpdatedAt.UTC(),
			User:      backupUser(rs.User),
		})
	}
	for _, l := range b.Loans {
		bb.Loans = append(bb.Loans, BackupLoan{
			BorrowerName:   l.BorrowerName,
			BorrowedAt:     l.BorrowedAt.UTC(),
			DueDate:        utc(l.DueDate),
			ReturnedAt:     utc(l.ReturnedAt),
			PreviousStatus: l.PreviousStatus,
			User:           backupUser(l.Lender),
		})
	}
	return bb
}

func backupUser(u *entities.User) BackupUser {
	if u == nil {
		return BackupUser{}
	}
	return BackupUser{Email: u.Email, Name: u.Name}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

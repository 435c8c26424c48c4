// Package stats aggregates the dashboard figures for one reader.
package stats

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/biblion/internal/entities"
)

const topCategories = 10

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Segment is one slice of a distribution with the books that make it up.
type Segment struct {
	Name    string `json:"name"`
	Value   int    `json:"value"`
	BookIDs []uint `json:"bookIds"`
}

type Stats struct {
	TotalBooks    int       `json:"totalBooks"`
	TotalRead     int       `json:"totalRead"`
	TotalToRead   int       `json:"totalToRead"`
	TotalReading  int       `json:"totalReading"`
	TotalStudying int       `json:"totalStudying"`
	Gender        []Segment `json:"genderData"`
	Status        []Segment `json:"statusData"`
	// Activity counts finished books per year, oldest year first.
	Activity []Segment `json:"activityData"`
	// Categories holds the ten largest categories.
	Categories []Segment `json:"categoryData"`
	Languages  []Segment `json:"languageData"`
	// BooksAdded has one entry per month of Year.
	BooksAdded []Segment `json:"booksAddedData"`
	Year       int       `json:"year"`
}

// Compute aggregates books from the point of view of userID. The books must
// carry their author, categories and the user's reading statuses. A zero
// year means the current one.
func Compute(books []entities.Book, userID uint, year int) Stats {
	if year == 0 {
		year = time.Now().Year()
	}

	gender := newCounter()
	status := newCounter()
	activity := newCounter()
	category := newCounter()
	language := newCounter()
	added := make([]Segment, len(months))
	for i, m := range months {
		added[i] = Segment{Name: m, BookIDs: []uint{}}
	}

	s := Stats{TotalBooks: len(books), Year: year}
	for _, b := range books {
		rs := statusRow(b, userID)
		st := entities.EffectiveStatus(rs)

		switch st {
		case entities.StatusRead:
			s.TotalRead++
			finished := b.UpdatedAt
			if rs != nil {
				finished = rs.UpdatedAt
			}
			activity.add(strconv.Itoa(finished.Year()), b.ID)
		case entities.StatusToRead:
			s.TotalToRead++
		case entities.StatusReading:
			s.TotalReading++
		case entities.StatusStudying:
			s.TotalStudying++
		}

		status.add(displayStatus(st), b.ID)
		gender.add(orUnknown(b.Author.Gender), b.ID)
		language.add(orUnknown(b.Language), b.ID)
		for _, c := range b.Categories {
			category.add(c.Name, b.ID)
		}

		if b.CreatedAt.Year() == year {
			m := &added[b.CreatedAt.Month()-1]
			m.Value++
			m.BookIDs = append(m.BookIDs, b.ID)
		}
	}

	s.Gender = gender.byValue()
	s.Status = status.byValue()
	s.Activity = activity.byName()
	s.Categories = limit(category.byValue(), topCategories)
	s.Languages = language.byValue()
	s.BooksAdded = added
	return s
}

func statusRow(b entities.Book, userID uint) *entities.ReadingStatus {
	for i := range b.ReadingStatuses {
		if b.ReadingStatuses[i].UserID == userID {
			return &b.ReadingStatuses[i]
		}
	}
	return nil
}

// displayStatus uppercases the first letter and lowercases the rest, which
// folds stored variants such as "to Read" together.
func displayStatus(s entities.Status) string {
	v := strings.ToLower(string(s))
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + v[1:]
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Unknown"
	}
	return v
}

type counter struct {
	order    []string
	segments map[string]*Segment
}

func newCounter() *counter {
	return &counter{segments: make(map[string]*Segment)}
}

func (c *counter) add(name string, bookID uint) {
	seg, ok := c.segments[name]
	if !ok {
		seg = &Segment{Name: name}
		c.segments[name] = seg
		c.order = append(c.order, name)
	}
	seg.Value++
	seg.BookIDs = append(seg.BookIDs, bookID)
}

func (c *counter) list() []Segment {
	out := make([]Segment, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.segments[name])
	}
	return out
}

// byValue sorts largest first, ties by name.
func (c *counter) byValue() []Segment {
	out := c.list()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (c *counter) byName() []Segment {
	out := c.list()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func limit(list []Segment, n int) []Segment {
	if len(list) > n {
		return list[:n]
	}
	return list
}

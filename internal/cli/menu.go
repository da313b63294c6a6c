package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Clark-Hu/moviedb/internal/collection"
	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/errs"
	"github.com/Clark-Hu/moviedb/internal/report"
)

// suggestionLimit caps the "did you mean" list after a search miss.
const suggestionLimit = 3

// errQuit signals that stdin is exhausted.
var errQuit = errors.New("input closed")

// Collection is the set of operations the menu drives.
type Collection interface {
	List(ctx context.Context) ([]domain.Movie, error)
	Add(ctx context.Context, title string) (domain.Movie, error)
	Delete(ctx context.Context, title string) error
	UpdateRating(ctx context.Context, title string, rating float64) error
	Stats(ctx context.Context) (domain.Stats, error)
	Random(ctx context.Context) (domain.Movie, error)
	Search(ctx context.Context, term string) ([]domain.Movie, error)
	Suggest(ctx context.Context, term string, limit int) ([]string, error)
	SortedByRating(ctx context.Context) ([]domain.Movie, error)
	Export(ctx context.Context) (string, error)
}

type menuItem struct {
	label string
	run   func(ctx context.Context) error
}

// Menu is the numbered interactive loop over a Collection.
type Menu struct {
	movies   Collection
	in       *bufio.Scanner
	out      io.Writer
	style    styles
	reporter *report.Reporter
	logger   *log.Logger
	items    []menuItem
}

// NewMenu builds a menu reading from in and printing to out.
func NewMenu(movies Collection, in io.Reader, out io.Writer, reporter *report.Reporter, logger *log.Logger) *Menu {
	if logger == nil {
		logger = log.Default()
	}
	m := &Menu{
		movies:   movies,
		in:       bufio.NewScanner(in),
		out:      out,
		style:    newStyles(lipgloss.NewRenderer(out)),
		reporter: reporter,
		logger:   logger,
	}
	m.items = []menuItem{
		{label: "Exit"},
		{label: "List movies", run: m.listMovies},
		{label: "Add movie", run: m.addMovie},
		{label: "Delete movie", run: m.deleteMovie},
		{label: "Update movie", run: m.updateMovie},
		{label: "Show stats", run: m.showStats},
		{label: "Random movie", run: m.randomMovie},
		{label: "Search movie", run: m.searchMovie},
		{label: "Movies sorted by rating", run: m.sortedMovies},
		{label: "Generate website", run: m.generateWebsite},
	}
	return m
}

// Run loops until the user picks 0, stdin closes or ctx is cancelled.
// Failed operations are shown and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	m.println("")
	m.println(m.style.banner.Render("********** My Movies Database **********"))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.printMenu()

		line, err := m.readLine("Enter choice (0-9): ")
		if err != nil {
			return m.quit(err)
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			m.println(m.style.err.Render("Invalid input. Please enter a number."))
			continue
		}
		m.println("")

		if choice == 0 {
			m.println("Bye!")
			return nil
		}
		if choice < 0 || choice >= len(m.items) {
			m.println(m.style.err.Render(fmt.Sprintf("Invalid choice. Please enter a number between 0 and %d.", len(m.items)-1)))
			continue
		}

		item := m.items[choice]
		if err := item.run(ctx); err != nil {
			if errors.Is(err, errQuit) {
				return m.quit(err)
			}
			m.showError(item.label, err)
		}
	}
}

func (m *Menu) quit(err error) error {
	if errors.Is(err, errQuit) {
		m.println("")
		m.println("Bye!")
		return nil
	}
	return err
}

func (m *Menu) printMenu() {
	m.println("")
	m.println(m.style.menu.Render("Menu:"))
	for i, item := range m.items {
		m.println(m.style.menu.Render(fmt.Sprintf("%d. %s", i, item.label)))
	}
	m.println("")
}

func (m *Menu) listMovies(ctx context.Context) error {
	movies, err := m.movies.List(ctx)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("%d movies in total", len(movies)))
	m.printMovies(movies)
	return nil
}

func (m *Menu) addMovie(ctx context.Context) error {
	title, err := m.readTitle("Enter a movie to add: ")
	if err != nil {
		return err
	}
	movie, err := m.movies.Add(ctx, title)
	if err != nil {
		return err
	}
	m.println(m.style.success.Render(fmt.Sprintf("Movie %s (%d) successfully added with rating %s.", movie.Title, movie.Year, formatRating(movie.Rating))))
	return nil
}

func (m *Menu) deleteMovie(ctx context.Context) error {
	title, err := m.readTitle("Enter a movie to delete: ")
	if err != nil {
		return err
	}
	if err := m.movies.Delete(ctx, title); err != nil {
		return err
	}
	m.println(m.style.success.Render(fmt.Sprintf("Movie %s successfully deleted.", title)))
	return nil
}

func (m *Menu) updateMovie(ctx context.Context) error {
	title, err := m.readTitle("Enter a movie to update: ")
	if err != nil {
		return err
	}
	raw, err := m.readLine("Enter new rating: ")
	if err != nil {
		return err
	}
	rating, err := collection.ParseRating(raw)
	if err != nil {
		return err
	}
	if err := m.movies.UpdateRating(ctx, title, rating); err != nil {
		return err
	}
	m.println(m.style.success.Render(fmt.Sprintf("Movie %s successfully updated to %s.", title, formatRating(rating))))
	return nil
}

func (m *Menu) showStats(ctx context.Context) error {
	stats, err := m.movies.Stats(ctx)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("Average rating: %.2f", stats.Average))
	m.println(fmt.Sprintf("Median rating: %.2f", stats.Median))
	m.println(fmt.Sprintf("Best movie: %s (%d) - %s", stats.Best.Title, stats.Best.Year, formatRating(stats.Best.Rating)))
	m.println(fmt.Sprintf("Worst movie: %s (%d) - %s", stats.Worst.Title, stats.Worst.Year, formatRating(stats.Worst.Rating)))
	return nil
}

func (m *Menu) randomMovie(ctx context.Context) error {
	movie, err := m.movies.Random(ctx)
	if err != nil {
		return err
	}
	m.println("Your movie for tonight: " + formatMovie(movie))
	return nil
}

func (m *Menu) searchMovie(ctx context.Context) error {
	term, err := m.readLine("Enter part of movie name: ")
	if err != nil {
		return err
	}
	matches, err := m.movies.Search(ctx, term)
	if err != nil {
		if !errs.Is(err, errs.ENOTFOUND) {
			return err
		}
		m.println(m.style.err.Render(errs.ErrorMessage(err)))
		suggestions, sugErr := m.movies.Suggest(ctx, term, suggestionLimit)
		if sugErr != nil {
			return sugErr
		}
		if len(suggestions) > 0 {
			m.println(m.style.dim.Render("Did you mean: " + strings.Join(suggestions, ", ") + "?"))
		}
		return nil
	}
	m.printMovies(matches)
	return nil
}

func (m *Menu) sortedMovies(ctx context.Context) error {
	movies, err := m.movies.SortedByRating(ctx)
	if err != nil {
		return err
	}
	m.printMovies(movies)
	return nil
}

func (m *Menu) generateWebsite(ctx context.Context) error {
	path, err := m.movies.Export(ctx)
	if err != nil {
		return err
	}
	m.println(m.style.success.Render("Website was generated successfully: " + path))
	return nil
}

// showError prints the user-facing message. Internal errors are also logged
// and reported.
func (m *Menu) showError(op string, err error) {
	m.println(m.style.err.Render(errs.ErrorMessage(err)))
	if errs.ErrorCode(err) == errs.EINTERNAL {
		m.logger.Printf("cli: %s: %v", op, err)
		m.reporter.Capture(err, map[string]string{"op": op})
	}
}

func (m *Menu) readLine(prompt string) (string, error) {
	fmt.Fprint(m.out, m.style.prompt.Render(prompt))
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errQuit
	}
	return m.in.Text(), nil
}

// readTitle re-prompts until a non-blank title is entered.
func (m *Menu) readTitle(prompt string) (string, error) {
	for {
		line, err := m.readLine(prompt)
		if err != nil {
			return "", err
		}
		if title := strings.TrimSpace(line); title != "" {
			return title, nil
		}
		m.println(m.style.err.Render("An empty title is not allowed. Try again."))
	}
}

func (m *Menu) printMovies(movies []domain.Movie) {
	for _, movie := range movies {
		m.println(formatMovie(movie))
	}
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func formatMovie(movie domain.Movie) string {
	return fmt.Sprintf("%s (%d): %s", movie.Title, movie.Year, formatRating(movie.Rating))
}

// formatRating prints whole ratings with one decimal ("9.0") and keeps
// every other digit as stored.
func formatRating(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

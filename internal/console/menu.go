package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"weather-forecast/internal/forecast"
	"weather-forecast/internal/storage"
	"weather-forecast/internal/weather"
)

// maxLineBytes bounds a single answer; longer lines are rejected as input errors.
const maxLineBytes = 4096

// Menu is the interactive five-action loop. Each action runs to completion
// before the next prompt.
type Menu struct {
	client    weather.Client
	favorites storage.Favorites
	render    *Renderer
	out       io.Writer
	reader    *bufio.Reader
}

func NewMenu(client weather.Client, favorites storage.Favorites, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		client:    client,
		favorites: favorites,
		render:    NewRenderer(out),
		out:       out,
		reader:    bufio.NewReader(in),
	}
}

// Run loops until the user exits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	m.render.Header("Weather lookup")

	for {
		m.render.Plain("")
		m.render.Header("Main menu:")
		m.render.Plain("1. View current weather")
		m.render.Plain("2. View forecast")
		m.render.Plain("3. Add city to favorites")
		m.render.Plain("4. View favorite cities")
		m.render.Plain("5. Exit")

		option, err := m.readLine("\nSelect an option (1-5): ")
		if err != nil {
			var inputErr *InputError
			if errors.As(err, &inputErr) {
				m.render.Error("%s", Describe(err))
				continue
			}
			return endOfInput(err)
		}

		switch option {
		case "5":
			return nil
		case "4":
			m.listFavorites()
		case "3":
			if err := m.addFavorite(); err != nil {
				if isEOF(err) {
					return nil
				}
				m.render.Error("%s", Describe(err))
			}
		case "1", "2":
			city, err := m.chooseCity()
			if err != nil {
				if isEOF(err) {
					return nil
				}
				m.render.Error("%s", Describe(err))
				continue
			}
			if option == "1" {
				m.showCurrent(ctx, city)
			} else {
				m.showForecast(ctx, city)
			}
		default:
			m.render.Error("%s", Describe(&InputError{Input: option, Reason: "choose a number from 1 to 5"}))
		}
	}
}

func (m *Menu) readLine(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	line, err := m.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	if len(line) > maxLineBytes {
		return "", &InputError{Reason: "input is too long"}
	}
	return strings.TrimSpace(line), nil
}

// loadFavorites treats unreadable storage as an empty list.
func (m *Menu) loadFavorites() []string {
	names, err := m.favorites.ListFavorites()
	if err != nil {
		log.Printf("Warning: could not read favorites: %v", err)
		return nil
	}
	return names
}

func (m *Menu) printFavorites(names []string) {
	for i, name := range names {
		m.render.Plain("%d. %s", i+1, name)
	}
}

func (m *Menu) listFavorites() {
	names := m.loadFavorites()
	if len(names) == 0 {
		m.render.Notice("No favorite cities saved.")
		return
	}
	m.render.Plain("")
	m.render.Notice("Favorite cities:")
	m.printFavorites(names)
}

func (m *Menu) addFavorite() error {
	city, err := m.readLine("Enter the name of the city to add to favorites: ")
	if err != nil {
		return err
	}

	added, err := m.favorites.AddFavorite(city)
	if errors.Is(err, storage.ErrEmptyName) {
		return &InputError{Input: city, Reason: "city name is empty"}
	}
	if err != nil {
		return err
	}
	if added {
		m.render.Success("City added to favorites!")
	} else {
		m.render.Notice("The city is already in favorites.")
	}
	return nil
}

func (m *Menu) readCity() (string, error) {
	city, err := m.readLine("Enter the city name: ")
	if err != nil {
		return "", err
	}
	if city == "" {
		return "", &InputError{Input: city, Reason: "city name is empty"}
	}
	return city, nil
}

func (m *Menu) chooseCity() (string, error) {
	names := m.loadFavorites()
	if len(names) == 0 {
		return m.readCity()
	}

	m.render.Plain("")
	m.render.Plain("Favorite cities:")
	m.printFavorites(names)
	m.render.Plain("0. Enter a new city")

	choice, err := m.readLine("\nSelect a city (number) or 0 for a new one: ")
	if err != nil {
		return "", err
	}
	if choice == "0" {
		return m.readCity()
	}

	index, convErr := strconv.Atoi(choice)
	if convErr != nil {
		return "", &InputError{Input: choice, Reason: "not a number"}
	}
	if index < 1 || index > len(names) {
		return "", &InputError{Input: choice, Reason: fmt.Sprintf("choose a number from 0 to %d", len(names))}
	}
	return names[index-1], nil
}

func (m *Menu) showCurrent(ctx context.Context, city string) {
	current, err := m.client.FetchCurrent(ctx, city)
	if err != nil {
		log.Printf("Current weather for %s failed: %v", city, err)
		m.render.Error("%s", Describe(err))
		return
	}
	m.render.RenderCurrent(current)
}

func (m *Menu) showForecast(ctx context.Context, city string) {
	samples, err := m.client.FetchForecast(ctx, city)
	if err != nil {
		log.Printf("Forecast for %s failed: %v", city, err)
		m.render.Error("%s", Describe(err))
		return
	}
	m.render.RenderForecast(city, forecast.Days(forecast.Aggregate(samples)))
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

func endOfInput(err error) error {
	if isEOF(err) {
		return nil
	}
	return err
}

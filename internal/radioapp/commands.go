package radioapp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/edward-ap/nuwaradio/internal/station"
)

const helpText = `commands:
  n / p            next / previous station
  t                toggle play
  s <id>           select station
  f                toggle favorite of the active station
  m                mute / unmute
  + / -            volume up / down
  v <0..1>         set volume
  l [lang|favorites|all] [search]
                   list stations
  r                retry catalog fetch
  q                quit
`

// Run reads one command per line from in until q, EOF or ctx is done. The
// observed state is printed to out after every command.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprint(out, helpText)
	a.printStatus(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if a.handleCommand(ctx, line, out) {
				return nil
			}
		}
	}
}

// handleCommand centralizes the front-end commands. It reports whether the
// loop should stop.
func (a *App) handleCommand(ctx context.Context, line string, out io.Writer) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	args := fields[1:]

	var err error
	switch strings.ToLower(fields[0]) {
	case "q", "quit":
		return true
	case "h", "help", "?":
		fmt.Fprint(out, helpText)
		return false
	case "n":
		a.session.Next()
	case "p":
		a.session.Prev()
	case "t":
		a.session.TogglePlay()
	case "s":
		if len(args) != 1 {
			err = errors.New("usage: s <id>")
			break
		}
		err = a.SelectByID(args[0])
	case "f":
		var fav bool
		fav, err = a.ToggleFavoriteActive()
		if err == nil {
			fmt.Fprintf(out, "favorite: %v\n", fav)
		}
	case "m":
		err = a.ToggleMute()
	case "+":
		err = a.ChangeVolume(volumeStep)
	case "-":
		err = a.ChangeVolume(-volumeStep)
	case "v":
		if len(args) != 1 {
			err = errors.New("usage: v <0..1>")
			break
		}
		var v float64
		v, err = strconv.ParseFloat(args[0], 64)
		if err == nil {
			err = a.SetVolume(v)
		}
	case "l":
		if len(args) == 0 {
			fmt.Fprintf(out, "languages: %s\n", strings.Join(station.Languages(a.catalog.Stations()), ", "))
		}
		a.SetFilter(parseFilter(args))
		PrintStations(out, a.Visible(), a.prefs.IsFavorite, a.session.State().StationID())
		return false
	case "r":
		if err = a.Refresh(ctx); err == nil {
			fmt.Fprintf(out, "%d stations\n", a.catalog.Len())
		}
	default:
		err = fmt.Errorf("unknown command %q, type h for help", fields[0])
	}

	if err != nil {
		if errors.Is(err, station.ErrCatalogFetch) {
			fmt.Fprintf(out, "error: %v (type r to retry)\n", err)
		} else {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	a.printStatus(out)
	return false
}

// parseFilter reads "l [lang|favorites|all] [search...]".
func parseFilter(args []string) station.Filter {
	var f station.Filter
	if len(args) == 0 {
		return f
	}
	switch strings.ToLower(args[0]) {
	case "all":
	case "favorites", "fav":
		f.FavoritesOnly = true
	default:
		f.Language = args[0]
	}
	f.Search = strings.Join(args[1:], " ")
	return f
}

func (a *App) printStatus(out io.Writer) {
	st := a.session.State()
	if st.Idle() {
		fmt.Fprintf(out, "[idle] volume %.2f\n", a.prefs.Volume())
		return
	}
	// the bracket shows only what the adapter confirmed
	status := "stopped"
	if st.Playing {
		status = "playing"
	}
	want := "pause"
	if st.Intent {
		want = "play"
	}
	fmt.Fprintf(out, "[%s] %s (%s) want %s volume %.2f\n", status, st.Station.Name, st.Station.ID, want, a.prefs.Volume())
}

// PrintStations writes one line per station, marking favorites with * and
// the active station with >.
func PrintStations(out io.Writer, stations []station.Station, isFavorite func(string) bool, activeID string) {
	if len(stations) == 0 {
		fmt.Fprintln(out, "no stations")
		return
	}
	for _, st := range stations {
		active, fav := " ", " "
		if st.ID == activeID {
			active = ">"
		}
		if isFavorite != nil && isFavorite(st.ID) {
			fav = "*"
		}
		fmt.Fprintf(out, "%s%s %-8s %-30s %-10s %s\n", active, fav, st.ID, st.Name, st.Language, st.Category)
	}
}

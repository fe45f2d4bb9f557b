package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/medimatch"
)

// maxSlotsShown limits the slots listed on a card.
const maxSlotsShown = 3

const slotLayout = "Mon 02 Jan 15:04"

var (
	cardStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	nameStyle      = lipgloss.NewStyle().Bold(true)
	labelStyle     = lipgloss.NewStyle().Faint(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Renderer writes chat turns and doctor lists to a terminal, or as JSON.
// Renderer is safe for concurrent use.
type Renderer struct {
	mu   sync.Mutex
	w    io.Writer
	json bool

	// Location is the zone slot times are shown in. Defaults to UTC.
	// JSON output always carries the original instants.
	Location *time.Location
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer, asJSON bool) *Renderer {
	return &Renderer{w: w, json: asJSON}
}

// Turn writes an assistant turn followed by a card per doctor.
func (r *Renderer) Turn(turn medimatch.ChatTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.json {
		return json.NewEncoder(r.w).Encode(turn)
	}

	if _, err := fmt.Fprintln(r.w, assistantStyle.Render(turn.Text)); err != nil {
		return err
	}
	return r.writeCards(turn.Doctors)
}

// Doctors writes a card per doctor.
func (r *Renderer) Doctors(doctors []medimatch.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.json {
		return json.NewEncoder(r.w).Encode(doctors)
	}
	return r.writeCards(doctors)
}

func (r *Renderer) writeCards(doctors []medimatch.Doctor) error {
	for i := range doctors {
		if _, err := fmt.Fprintln(r.w, Card(&doctors[i], r.Location)); err != nil {
			return err
		}
	}
	return nil
}

// Card renders a bordered summary of one doctor with slot times in loc.
// A nil loc shows UTC.
func Card(d *medimatch.Doctor, loc *time.Location) string {
	lines := []string{nameStyle.Render(d.Name)}
	if d.Specialty != "" {
		lines = append(lines, d.Specialty)
	}

	field := func(label, value string) {
		if value != "" {
			lines = append(lines, labelStyle.Render(label+":")+" "+value)
		}
	}
	field("Address", d.Address)
	field("Phone", d.Phone)
	field("Insurance", strings.Join(d.AcceptedInsurance, ", "))
	field("Languages", strings.Join(d.Languages, ", "))
	field("Next slots", formatSlots(d, loc))
	field("Book", d.SourceURL)
	field("Map", MapURL(d.Address))
	if d.Description != "" {
		lines = append(lines, "", d.Description)
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

func formatSlots(d *medimatch.Doctor, loc *time.Location) string {
	if !d.HasAvailability() {
		return "none listed"
	}
	if loc == nil {
		loc = time.UTC
	}
	slots := d.AvailableSlots[:min(len(d.AvailableSlots), maxSlotsShown)]
	formatted := make([]string, 0, len(slots))
	for _, s := range slots {
		formatted = append(formatted, s.In(loc).Format(slotLayout))
	}
	if more := len(d.AvailableSlots) - len(slots); more > 0 {
		formatted = append(formatted, fmt.Sprintf("+%d more", more))
	}
	return strings.Join(formatted, ", ")
}

// MapURL returns an OpenStreetMap search link for the address.
func MapURL(address string) string {
	if address == "" {
		return ""
	}
	return "https://www.openstreetmap.org/search?query=" + url.QueryEscape(address)
}

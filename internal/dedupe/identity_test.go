package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Origamihase/wien-oepnv/internal/models"
)

func sampleEvent() models.Event {
	return models.Event{
		Provider:    "wienerlinien",
		Title:       "Gleisarbeiten",
		Description: "Ersatzverkehr zwischen den betroffenen Stationen",
		Category:    "baustelle",
		Lines:       []string{"U4", "U1"},
		Stations:    []string{"Karlsplatz", "Stadtpark"},
		StartsAt:    time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC),
	}
}

func TestIdentity_StableAcrossRuns(t *testing.T) {
	a := sampleEvent()
	b := sampleEvent()
	assert.Equal(t, Identity(&a), Identity(&b))
}

func TestIdentity_OrderIndependentSets(t *testing.T) {
	a := sampleEvent()
	b := sampleEvent()
	b.Lines = []string{"U1", "U4"}
	b.Stations = []string{"Stadtpark", "Karlsplatz"}
	assert.Equal(t, Identity(&a), Identity(&b), "line and station order must not matter")
}

func TestIdentity_SensitiveToStableFields(t *testing.T) {
	base := sampleEvent()
	baseKey := Identity(&base)

	mutations := map[string]func(*models.Event){
		"provider": func(e *models.Event) { e.Provider = "oebb" },
		"title":    func(e *models.Event) { e.Title = "Stoerung" },
		"category": func(e *models.Event) { e.Category = "stoerung" },
		"lines":    func(e *models.Event) { e.Lines = []string{"U4"} },
		"stations": func(e *models.Event) { e.Stations = []string{"Karlsplatz"} },
		"start":    func(e *models.Event) { e.StartsAt = e.StartsAt.Add(time.Hour) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			event := sampleEvent()
			mutate(&event)
			assert.NotEqual(t, baseKey, Identity(&event))
		})
	}
}

func TestIdentity_IgnoresVolatileFields(t *testing.T) {
	a := sampleEvent()
	b := sampleEvent()
	b.Description = "anders formuliert"
	b.Link = "https://example.com/other"
	later := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	b.EndsAt = &later
	assert.Equal(t, Identity(&a), Identity(&b), "volatile fields must not change the state key")
}

func TestDedupeKey_ProviderAgnostic(t *testing.T) {
	a := sampleEvent()
	b := sampleEvent()
	b.Provider = "oebb"
	assert.Equal(t, DedupeKey(&a), DedupeKey(&b))
}

func TestDedupeKey_SensitiveToDescriptionAndEnd(t *testing.T) {
	base := sampleEvent()
	baseKey := DedupeKey(&base)

	withDesc := sampleEvent()
	withDesc.Description = "anders"
	assert.NotEqual(t, baseKey, DedupeKey(&withDesc))

	withEnd := sampleEvent()
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	withEnd.EndsAt = &end
	assert.NotEqual(t, baseKey, DedupeKey(&withEnd))
}

func TestDedupeKey_NormalizesTimeZone(t *testing.T) {
	vienna, _ := time.LoadLocation("Europe/Vienna")
	a := sampleEvent()
	b := sampleEvent()
	b.StartsAt = a.StartsAt.In(vienna)
	assert.Equal(t, DedupeKey(&a), DedupeKey(&b), "the same instant hashes the same in any zone")
}

func TestHashFields_FieldBoundariesCannotShift(t *testing.T) {
	assert.NotEqual(t, hashFields("A|B", ""), hashFields("A", "|B"))
	assert.NotEqual(t, hashFields("AB"), hashFields("A", "B"))
	assert.NotEqual(t, hashFields("", "X"), hashFields("X", ""))
}

func TestJoinSorted_MemberBoundariesCannotShift(t *testing.T) {
	assert.NotEqual(t, joinSorted([]string{"AB", "C"}), joinSorted([]string{"A", "BC"}))
	assert.Equal(t, joinSorted([]string{"b", "a"}), joinSorted([]string{"a", "b"}))
	assert.Empty(t, joinSorted(nil))
}

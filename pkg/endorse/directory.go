// Package endorse is the endorsement/reference directory: per-subject
// capped lists of endorsements with paged reads.
package endorse

import (
	"sync"
	"time"

	"github.com/veristake/veristake/pkg/fault"
	"github.com/veristake/veristake/pkg/paging"
)

// MaxPerSubject caps one subject's endorsement list.
const MaxPerSubject = 200

const maxTextLen = 500

// Endorsement is one reference given to a subject.
type Endorsement struct {
	ID        uint64    `json:"id"`
	Subject   string    `json:"subject"`
	Endorser  string    `json:"endorser"`
	SkillName string    `json:"skill_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory owns endorsements keyed by subject.
type Directory struct {
	mu        sync.RWMutex
	bySubject map[string][]Endorsement
	nextID    uint64
	clock     func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		bySubject: make(map[string][]Endorsement),
		clock:     time.Now,
	}
}

// WithClock overrides the clock for testing.
func (d *Directory) WithClock(clock func() time.Time) *Directory {
	d.clock = clock
	return d
}

// Add records an endorsement and returns its id.
func (d *Directory) Add(subject, endorser, skillName, text string) (uint64, error) {
	if subject == "" || endorser == "" {
		return 0, fault.Validationf("subject and endorser must not be empty")
	}
	if subject == endorser {
		return 0, fault.Validationf("self-endorsement is not allowed")
	}
	if len(text) > maxTextLen {
		return 0, fault.Validationf("text must be at most %d characters", maxTextLen)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.bySubject[subject]
	if len(list) >= MaxPerSubject {
		return 0, fault.Capacityf("subject %s holds %d endorsements", subject, MaxPerSubject)
	}
	id := d.nextID
	d.nextID++
	d.bySubject[subject] = append(list, Endorsement{
		ID:        id,
		Subject:   subject,
		Endorser:  endorser,
		SkillName: skillName,
		Text:      text,
		CreatedAt: d.clock(),
	})
	return id, nil
}

// Remove deletes an endorsement. Only the endorser may remove it.
func (d *Directory) Remove(endorser, subject string, id uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.bySubject[subject]
	for i, e := range list {
		if e.ID != id {
			continue
		}
		if e.Endorser != endorser {
			return fault.Authorizationf("%s did not write endorsement %d", endorser, id)
		}
		d.bySubject[subject] = append(list[:i], list[i+1:]...)
		return nil
	}
	return fault.NotFoundf("endorsement %d for %s", id, subject)
}

// For returns one page of the subject's endorsements.
func (d *Directory) For(subject string, offset, limit int) paging.Page[Endorsement] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return paging.GetPage(d.bySubject[subject], offset, limit)
}

// ForSkill pages the subject's endorsements naming a skill. The scan is
// bounded by MaxPerSubject.
func (d *Directory) ForSkill(subject, skillName string, offset, limit int) paging.Page[Endorsement] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return paging.FilterPage(d.bySubject[subject], func(e Endorsement) bool { return e.SkillName == skillName }, offset, limit)
}

package dialogue

import "sync"

type OfferStatus string

const (
	StatusWatched      OfferStatus = "watched it"
	StatusDisliked     OfferStatus = "don't like"
	StatusAcknowledged OfferStatus = "Acknowledged"
	StatusIgnored      OfferStatus = "Ignored"
)

// OfferContext tracks feedback on offered items. The recognizer mutates it but
// does not own it.
type OfferContext interface {
	Offered(slot string) bool
	UpdateOffer(slot, value string, status OfferStatus)
}

// OfferLog is the OfferContext kept per session.
type OfferLog struct {
	mu       sync.Mutex
	Slots    []string                          `json:"slots"`
	Feedback map[string]map[string]OfferStatus `json:"feedback"`
}

func NewOfferLog() *OfferLog {
	return &OfferLog{Feedback: make(map[string]map[string]OfferStatus)}
}

// Track registers the slots of a system offer as under offer.
func (l *OfferLog) Track(act Act) {
	if act.Intent != Offer {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range act.Params {
		if p.Slot == "" || containsString(l.Slots, p.Slot) {
			continue
		}
		l.Slots = append(l.Slots, p.Slot)
	}
}

func (l *OfferLog) Offered(slot string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return containsString(l.Slots, slot)
}

func (l *OfferLog) UpdateOffer(slot, value string, status OfferStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Feedback == nil {
		l.Feedback = make(map[string]map[string]OfferStatus)
	}
	byValue, ok := l.Feedback[slot]
	if !ok {
		byValue = make(map[string]OfferStatus)
		l.Feedback[slot] = byValue
	}
	byValue[value] = status
}

func (l *OfferLog) Status(slot, value string) (OfferStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.Feedback[slot][value]
	return st, ok
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

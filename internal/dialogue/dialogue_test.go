package dialogue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemEqualIsStructural(t *testing.T) {
	a := NewItem("genres", "comedy")
	require.True(t, a.Equal(Item{Slot: "genres", Op: EQ, Value: "comedy"}))
	require.False(t, a.Equal(NewItem("genres", "drama")))
	require.Equal(t, "genres=comedy", a.String())
}

func TestActHelpers(t *testing.T) {
	act := NewAct(Offer, NewItem("genres", "drama"), NewItem(NameSlot, ""), NewItem(NameSlot, "Inception"))

	name, ok := act.NameItem()
	require.True(t, ok)
	require.Equal(t, "Inception", name.Value)
	require.True(t, act.Contains(NewItem("genres", "drama")))

	cp := act.Clone()
	cp.Params[0].Value = "changed"
	require.Equal(t, "drama", act.Params[0].Value)

	require.Equal(t, "offer(genres=drama, name=, name=Inception)", act.String())
	require.NotNil(t, NewAct(UNK).Params)
}

func TestStateLastSubstantiveSkipsMetaActs(t *testing.T) {
	st := State{LastSysActs: []Act{
		NewAct(AckFeedback),
		NewAct(CantHelp),
		NewAct(Request, NewItem("genres", "")),
	}}
	last, ok := st.LastSubstantive()
	require.True(t, ok)
	require.Equal(t, Request, last.Intent)

	_, ok = State{LastSysActs: []Act{NewAct(CantHelp)}}.LastSubstantive()
	require.False(t, ok)
}

func TestOfferLog(t *testing.T) {
	log := NewOfferLog()
	log.Track(NewAct(Request, NewItem("genres", "")))
	require.False(t, log.Offered("genres"))

	log.Track(NewAct(Offer, NewItem(NameSlot, "Inception"), NewItem(NameSlot, "Heat")))
	require.True(t, log.Offered(NameSlot))
	require.Equal(t, []string{NameSlot}, log.Slots)

	log.UpdateOffer(NameSlot, "Inception", StatusWatched)
	st, ok := log.Status(NameSlot, "Inception")
	require.True(t, ok)
	require.Equal(t, StatusWatched, st)

	_, ok = log.Status(NameSlot, "Heat")
	require.False(t, ok)
}

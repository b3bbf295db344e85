package projection

import (
	"reflect"
	"testing"
	"time"

	"tableflip.dev/slate/pkg/queue"
)

var loc = time.FixedZone("EST", -5*60*60)

func ts(day, hour int) *time.Time {
	t := time.Date(2024, time.June, day, hour, 0, 0, 0, loc)
	return &t
}

func item(id string, scheduled *time.Time) queue.Item {
	return queue.Item{
		ID:           id,
		Platform:     queue.Bluesky,
		Content:      "post " + id,
		ScheduledFor: scheduled,
		Status:       queue.StatusDraft,
		Source:       queue.SourceQueue,
	}
}

func TestBuildPartitionsItems(t *testing.T) {
	p := Build([]queue.Item{
		item("a", ts(3, 14)),
		item("b", ts(3, 9)),
		item("c", nil),
		item("d", ts(5, 9)),
	}, loc)

	if got := len(p.Day("2024-06-03")); got != 2 {
		t.Fatalf("expected 2 items on 06-03, got %d", got)
	}
	if p.Day("2024-06-03")[0].ID != "b" {
		t.Fatalf("expected earlier item first, got %s", p.Day("2024-06-03")[0].ID)
	}
	if len(p.Unscheduled) != 1 || p.Unscheduled[0].ID != "c" {
		t.Fatalf("unexpected unscheduled bucket: %+v", p.Unscheduled)
	}
	if p.Len() != 4 {
		t.Fatalf("expected 4 items total, got %d", p.Len())
	}
}

func TestBuildDropsDuplicates(t *testing.T) {
	p := Build([]queue.Item{
		item("a", ts(3, 14)),
		item("a", nil),
		item("a", ts(4, 9)),
	}, loc)

	if p.Len() != 1 {
		t.Fatalf("duplicate id appeared %d times", p.Len())
	}
	if len(p.Day("2024-06-03")) != 1 {
		t.Fatalf("first occurrence should win")
	}
}

func TestPartitionInvariant(t *testing.T) {
	p := Build([]queue.Item{
		item("a", ts(3, 14)),
		item("b", nil),
	}, loc)

	// Moving a onto b's day and scheduling b must leave every id in
	// exactly one bucket.
	moved := item("a", ts(5, 14))
	p = p.Insert(moved, loc)
	p = p.Insert(item("b", ts(5, 9)), loc)

	counts := map[string]int{}
	for _, items := range p.ByDate {
		for _, it := range items {
			counts[it.ID]++
		}
	}
	for _, it := range p.Unscheduled {
		counts[it.ID]++
	}
	for id, n := range counts {
		if n != 1 {
			t.Fatalf("item %s appears %d times", id, n)
		}
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 distinct items, got %d", len(counts))
	}
}

func TestLocalDateKeyNearMidnight(t *testing.T) {
	// 02:30 UTC on June 5 is the evening of June 4 in eastern time.
	utc := time.Date(2024, time.June, 5, 2, 30, 0, 0, time.UTC)
	p := Build([]queue.Item{item("a", &utc)}, loc)

	if len(p.Day("2024-06-04")) != 1 {
		t.Fatalf("expected item keyed to local June 4, got %+v", p.ByDate)
	}
}

func TestTransformsDoNotMutateOriginal(t *testing.T) {
	original := Build([]queue.Item{
		item("a", ts(3, 14)),
		item("b", nil),
	}, loc)
	snapshot := original.Clone()

	_ = original.Remove("a")
	_ = original.Insert(item("b", ts(7, 10)), loc)
	_ = original.Insert(item("c", ts(3, 8)), loc)

	if !reflect.DeepEqual(snapshot, original) {
		t.Fatalf("transforms mutated the receiver:\nbefore %+v\nafter  %+v", snapshot, original)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	p := Build([]queue.Item{item("a", ts(3, 14))}, loc)
	q := p.Remove("zzz")
	if !reflect.DeepEqual(p, q) {
		t.Fatalf("removing an absent id changed the projection")
	}
}

func TestTimelessItemsSortLast(t *testing.T) {
	// An item that has a day but lost its clock reading still groups under
	// the day via Insert with an explicit midnight; deterministic ordering
	// is id-based among equals.
	p := Empty()
	p = p.Insert(item("b", ts(3, 9)), loc)
	p = p.Insert(item("a", ts(3, 9)), loc)
	day := p.Day("2024-06-03")
	if day[0].ID != "a" || day[1].ID != "b" {
		t.Fatalf("tie break not deterministic: %s, %s", day[0].ID, day[1].ID)
	}

	u := Empty()
	u = u.Insert(item("y", nil), loc)
	u = u.Insert(item("x", nil), loc)
	if u.Unscheduled[0].ID != "x" {
		t.Fatalf("unscheduled bucket not ordered by id: %+v", u.Unscheduled)
	}
}

func TestFindAndItems(t *testing.T) {
	p := Build([]queue.Item{
		item("a", ts(3, 14)),
		item("b", nil),
	}, loc)

	got, ok := p.Find("b")
	if !ok || got.ID != "b" {
		t.Fatalf("expected to find b, got %+v ok=%v", got, ok)
	}
	if _, ok := p.Find("zzz"); ok {
		t.Fatalf("found an id that does not exist")
	}

	flat := p.Items()
	if len(flat) != 2 || flat[0].ID != "a" || flat[1].ID != "b" {
		t.Fatalf("unexpected flatten order: %+v", flat)
	}
}

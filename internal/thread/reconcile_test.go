package thread

import (
	"testing"

	"github.com/tOgg1/explode/internal/archive"
)

func record(ts string) *archive.MessageRecord {
	return &archive.MessageRecord{Kind: archive.KindMessage, Timestamp: ts}
}

func TestReconcileAttachesDeclaredReply(t *testing.T) {
	root := record("100.000100")
	root.DeclaredReplies = []*archive.ReplyRef{{Timestamp: "100.000200"}}
	reply := record("100.000200")
	reply.ThreadRootTimestamp = "100.000100"

	top := Reconcile([]*archive.MessageRecord{root, reply})

	if len(top) != 1 {
		t.Fatalf("expected 1 top-level record, got %d", len(top))
	}
	if top[0] != root {
		t.Fatalf("expected root at top level, got %v", top[0])
	}
	if root.DeclaredReplies[0].Record != reply {
		t.Fatalf("expected reply attached to declared entry")
	}
	if reply.Orphan {
		t.Fatalf("attached reply must not be an orphan")
	}
}

func TestReconcileMissingParentIsOrphan(t *testing.T) {
	reply := record("100.000200")
	reply.ThreadRootTimestamp = "99.000100"

	top := Reconcile([]*archive.MessageRecord{reply})

	if len(top) != 1 {
		t.Fatalf("expected orphan to stay top-level, got %d records", len(top))
	}
	if !reply.Orphan {
		t.Fatalf("expected orphan flag set")
	}
}

func TestReconcileUnacknowledgedReplyIsOrphan(t *testing.T) {
	root := record("100.000100")
	root.DeclaredReplies = []*archive.ReplyRef{{Timestamp: "100.000300"}}
	reply := record("100.000200")
	reply.ThreadRootTimestamp = "100.000100"

	top := Reconcile([]*archive.MessageRecord{root, reply})

	if len(top) != 2 {
		t.Fatalf("expected both records top-level, got %d", len(top))
	}
	if !reply.Orphan {
		t.Fatalf("expected unacknowledged reply flagged orphan")
	}
	if root.DeclaredReplies[0].Record != nil {
		t.Fatalf("declared entry must stay unattached")
	}
}

func TestReconcileBroadcastCopyIsReplyAndRoot(t *testing.T) {
	root := record("100.000100")
	root.DeclaredReplies = []*archive.ReplyRef{{Timestamp: "100.000200"}}
	broadcast := record("100.000200")
	broadcast.ThreadRootTimestamp = "100.000100"
	broadcast.DeclaredReplies = []*archive.ReplyRef{{Timestamp: "100.000300"}}
	nested := record("100.000300")
	nested.ThreadRootTimestamp = "100.000200"

	top := Reconcile([]*archive.MessageRecord{root, broadcast, nested})

	// The broadcast copy attaches to its parent and still holds the top
	// level for its own replies.
	if len(top) != 2 {
		t.Fatalf("expected root and broadcast top-level, got %d", len(top))
	}
	if root.DeclaredReplies[0].Record != broadcast {
		t.Fatalf("expected broadcast attached to root")
	}
	if broadcast.DeclaredReplies[0].Record != nested {
		t.Fatalf("expected nested reply attached to broadcast")
	}
}

func TestReconcileAttachesAtMostOnce(t *testing.T) {
	root := record("100.000100")
	root.DeclaredReplies = []*archive.ReplyRef{{Timestamp: "100.000200"}}
	reply := record("100.000200")
	reply.ThreadRootTimestamp = "100.000100"

	records := []*archive.MessageRecord{root, reply}
	Reconcile(records)
	attached := root.DeclaredReplies[0].Record
	Reconcile(records)

	if root.DeclaredReplies[0].Record != attached {
		t.Fatalf("reconciliation must attach a record exactly once")
	}
}

func TestReconcileKeepsUnthreadedOrder(t *testing.T) {
	a := record("100.000100")
	b := record("100.000200")
	c := record("100.000300")

	top := Reconcile([]*archive.MessageRecord{a, b, c})

	if len(top) != 3 || top[0] != a || top[1] != b || top[2] != c {
		t.Fatalf("expected input order preserved, got %v", top)
	}
}

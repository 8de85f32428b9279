package runtime

import (
	"github.com/cascadeflow/crgp/internal/model"
	"github.com/cascadeflow/crgp/internal/reconstruct"
)

// workerState is the private state of one worker: its operator instance
// (GALE xor LEAF, never both) and the edges it has emitted during the
// epoch currently in flight. Touched by exactly one goroutine at a time
// within a given pass of ProcessRetweetBatch, so it needs no lock.
type workerState struct {
	id int

	gale *reconstruct.GALE
	leaf *reconstruct.LEAF

	epochBuf []model.InfluenceEdge
}

func (w *workerState) addFriendship(user model.UserID, friends []model.UserID) {
	if w.gale != nil {
		w.gale.AddFriendship(user, friends)
		return
	}
	w.leaf.AddFriendship(user, friends)
}

func (w *workerState) emit(e model.InfluenceEdge) {
	w.epochBuf = append(w.epochBuf, e)
}

func (w *workerState) drainEpoch() []model.InfluenceEdge {
	out := w.epochBuf
	w.epochBuf = nil
	return out
}

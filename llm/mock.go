package llm

import (
	"context"
	"sync"
)

// MockReply scripts one provider exchange for a MockClient.
type MockReply struct {
	Text string
	Err  error
}

// MockClient is a scripted Client for tests. Each call consumes the next
// reply from Script; when the script runs out the last reply repeats. A
// non-nil Gate makes calls block until the gate is closed, which lets tests
// exercise busy and cancellation paths deterministically.
type MockClient struct {
	mu       sync.Mutex
	Script   []MockReply
	Requests []Request

	// Gate, when set, blocks each call until it is closed or the context
	// is cancelled.
	Gate chan struct{}

	// ChunkSize splits streamed text into pieces of this many bytes.
	// Zero streams the whole text as one chunk.
	ChunkSize int
}

func (m *MockClient) next(req Request) MockReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if len(m.Script) == 0 {
		return MockReply{}
	}
	reply := m.Script[0]
	if len(m.Script) > 1 {
		m.Script = m.Script[1:]
	}
	return reply
}

// Calls reports how many requests the client has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *MockClient) wait(ctx context.Context) error {
	if m.Gate == nil {
		return nil
	}
	select {
	case <-m.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockClient) Complete(ctx context.Context, req Request) (*Response, error) {
	reply := m.next(req)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &Response{Text: reply.Text}, nil
}

func (m *MockClient) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	reply := m.next(req)
	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		if err := m.wait(ctx); err != nil {
			emit(ctx, ch, Chunk{Err: err})
			return
		}
		if reply.Err != nil {
			emit(ctx, ch, Chunk{Err: reply.Err})
			return
		}
		text := reply.Text
		size := m.ChunkSize
		if size <= 0 {
			size = len(text)
		}
		for len(text) > 0 {
			n := size
			if n > len(text) {
				n = len(text)
			}
			if !emit(ctx, ch, Chunk{Text: text[:n]}) {
				return
			}
			text = text[n:]
		}
		emit(ctx, ch, Chunk{Done: true})
	}()
	return ch, nil
}

package pipeline

import "os"

// pipeEnds owns the parent's copies of one pipe's endpoints. Both files are
// close-on-exec, so a child only sees an endpoint that was handed to it as
// stdin or stdout. Close methods are idempotent and safe on a nil receiver,
// which lets every exit path release whatever is still held.
type pipeEnds struct {
	r *os.File
	w *os.File
}

func newPipeEnds(newPipe func() (*os.File, *os.File, error)) (*pipeEnds, error) {
	r, w, err := newPipe()
	if err != nil {
		return nil, err
	}
	return &pipeEnds{r: r, w: w}, nil
}

func (p *pipeEnds) closeRead() {
	if p == nil || p.r == nil {
		return
	}
	_ = p.r.Close()
	p.r = nil
}

func (p *pipeEnds) closeWrite() {
	if p == nil || p.w == nil {
		return
	}
	_ = p.w.Close()
	p.w = nil
}

func (p *pipeEnds) close() {
	p.closeRead()
	p.closeWrite()
}

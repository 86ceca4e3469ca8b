package panel

import (
	"sync"
)

// MainSectionClass marks the page's main content wrapper region.
const MainSectionClass = "layout-main-section-wrapper"

// PageContext is what a refresh handler sees of the host record-detail page.
type PageContext interface {
	// Root returns the page's root DOM region.
	Root() *Element
	// IsNew reports whether the current record has never been saved.
	IsNew() bool
	// DocName returns the current record identifier.
	DocName() string
	// AfterSetup runs fn on the loop once pending page setup work has settled.
	AfterSetup(fn func())
	// Go runs blocking work off the loop and posts its continuation back.
	Go(work func() func())
}

// RefreshHandler is invoked on the loop for every refresh lifecycle event.
type RefreshHandler func(PageContext)

// Page models a record-detail view: a DOM tree, the record it shows, a
// refresh lifecycle event, and a pending-setup tracker.
type Page struct {
	loop *EventLoop
	root *Element

	mu       sync.Mutex
	docName  string
	isNew    bool
	handlers []RefreshHandler
	setups   int
	deferred []func()
}

// NewPage builds a page on loop for the given record.
func NewPage(loop *EventLoop, docName string, isNew bool) *Page {
	root := NewElement("div", "form-page")
	root.root = true
	root.Append(NewElement("div", MainSectionClass))
	return &Page{
		loop:    loop,
		root:    root,
		docName: docName,
		isNew:   isNew,
	}
}

// Root implements PageContext.
func (p *Page) Root() *Element { return p.root }

// Loop returns the event loop the page runs on.
func (p *Page) Loop() *EventLoop { return p.loop }

// IsNew implements PageContext.
func (p *Page) IsNew() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isNew
}

// DocName implements PageContext.
func (p *Page) DocName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.docName
}

// SetRecord switches the record shown by the page (navigation, first save).
func (p *Page) SetRecord(docName string, isNew bool) {
	p.mu.Lock()
	p.docName = docName
	p.isNew = isNew
	p.mu.Unlock()
}

// OnRefresh registers handler for refresh events and returns an unsubscribe func.
func (p *Page) OnRefresh(handler RefreshHandler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
	idx := len(p.handlers) - 1
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if idx < len(p.handlers) {
			p.handlers[idx] = nil
		}
	}
}

// Refresh fires the refresh lifecycle event on the loop.
func (p *Page) Refresh() {
	p.loop.Post(func() {
		p.mu.Lock()
		handlers := append([]RefreshHandler(nil), p.handlers...)
		p.mu.Unlock()
		for _, h := range handlers {
			if h != nil {
				h(p)
			}
		}
	})
}

// BeginSetup marks asynchronous page setup as pending. The returned func
// releases it; AfterSetup continuations run once every token is released.
func (p *Page) BeginSetup() (done func()) {
	p.mu.Lock()
	p.setups++
	p.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.setups--
			var ready []func()
			if p.setups == 0 {
				ready = p.deferred
				p.deferred = nil
			}
			p.mu.Unlock()
			for _, fn := range ready {
				p.loop.Post(fn)
			}
		})
	}
}

// AfterSetup implements PageContext. With nothing pending fn is queued as the
// next loop task, after the current synchronous work.
func (p *Page) AfterSetup(fn func()) {
	p.mu.Lock()
	if p.setups > 0 {
		p.deferred = append(p.deferred, fn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.loop.Post(fn)
}

// Go implements PageContext.
func (p *Page) Go(work func() func()) {
	p.loop.Go(work)
}

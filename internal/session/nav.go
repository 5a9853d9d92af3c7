package session

// Page is a logical UI page on the navigation stack.
type Page string

const (
	PageHome  Page = "home"
	PageRooms Page = "rooms"
	PageForum Page = "forum"
	PageAbout Page = "about"
)

// ActivePage returns the top of the navigation stack.
func (s *Session) ActivePage() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePageLocked()
}

// History returns a copy of the navigation stack, oldest first.
func (s *Session) History() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Page, len(s.pageHistory))
	copy(out, s.pageHistory)
	return out
}

func (s *Session) activePageLocked() Page {
	return s.pageHistory[len(s.pageHistory)-1]
}

func (s *Session) pushPageLocked(page Page) {
	s.pageHistory = append(s.pageHistory, page)
	s.emit(Event{Type: "navigation", Payload: s.pageHistory})
}

// resetHistoryLocked collapses the stack to the home page, used when
// the active room is deleted out from under the user.
func (s *Session) resetHistoryLocked() {
	s.pageHistory = []Page{PageHome}
	s.emit(Event{Type: "navigation", Payload: s.pageHistory})
}

func (s *Session) popPageLocked() {
	if len(s.pageHistory) > 1 {
		s.pageHistory = s.pageHistory[:len(s.pageHistory)-1]
	}
	s.emit(Event{Type: "navigation", Payload: s.pageHistory})
}

// NavigateTo moves to a logical page. Leaving the forum while a room is
// active leaves that room (navigation-only; counts untouched). Repeat
// navigation to home clears the pinned coin instead of growing the
// stack; navigating to the forum targets the room list unless a room is
// already open.
func (s *Session) NavigateTo(page Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.activePageLocked()
	if s.currentRoom != nil && (page != PageForum || current != PageForum) {
		s.leaveActiveRoomLocked()
	}

	switch {
	case page == PageHome:
		if current == PageHome {
			s.searchedCoin = ""
		} else {
			s.pushPageLocked(PageHome)
		}
	case page == PageForum:
		if current == PageForum && s.currentRoom != nil {
			return
		}
		s.pushPageLocked(PageRooms)
	case page != current:
		s.pushPageLocked(page)
	}
}

// HandleBack is the shell's back-button callback. It returns true when
// the event was consumed; false tells the shell to exit the app.
func (s *Session) HandleBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.activePageLocked()
	if current == PageHome && s.searchedCoin != "" {
		s.searchedCoin = ""
		return true
	}

	if len(s.pageHistory) > 1 {
		if current == PageForum {
			s.leaveActiveRoomLocked()
		}
		s.popPageLocked()
		return true
	}

	return false
}

// SelectCoin pins a searched coin on the home page.
func (s *Session) SelectCoin(coinID string) {
	s.mu.Lock()
	s.searchedCoin = coinID
	s.mu.Unlock()
}

// SearchedCoin returns the pinned coin id, empty when showing trending.
func (s *Session) SearchedCoin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchedCoin
}

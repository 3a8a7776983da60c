package store

// AccountType values for User.AccountType.
const (
	AccountTypeUser         = "user"
	AccountTypeOrganization = "organization"
)

// Counters holds the monotonic ID allocators for each collection. They are
// only ever incremented inside Store.Update, under the write lock.
type Counters struct {
	Users  int64 `json:"users"`
	Events int64 `json:"events"`
}

// User is a registered account. FailedAttempts and LockUntil carry the
// login lockout state; LockUntil is an epoch-seconds deadline, 0 = unlocked.
type User struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	PasswordHash   string `json:"passwordHash"`
	AccountType    string `json:"type"`
	OrgName        string `json:"orgName,omitempty"`
	FailedAttempts int    `json:"failedAttempts"`
	LockUntil      int64  `json:"lockUntil"`
}

// Event is a published listing. LikedBy and SavedBy are duplicate-free email
// sets; Likes is always recomputed as len(LikedBy) by the mutating operation.
type Event struct {
	ID          int64    `json:"id"`
	OrganizerID int64    `json:"organizerId"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	Price       float64  `json:"price"`
	Capacity    int      `json:"capacity"`
	Image       string   `json:"image,omitempty"`
	Likes       int      `json:"likes"`
	LikedBy     []string `json:"likedBy"`
	SavedBy     []string `json:"savedBy"`
}

// Document is the whole persisted state. Version increments on every
// committed write so external consumers can detect change.
type Document struct {
	Version int64    `json:"version"`
	Users   []User   `json:"users"`
	Events  []Event  `json:"events"`
	LastIDs Counters `json:"lastIds"`
}

func newDocument() *Document {
	return &Document{
		Users:  []User{},
		Events: []Event{},
	}
}

// UserByEmail returns a pointer into the document, or nil. Email matching is
// case-sensitive: the address is the collection key exactly as registered.
func (d *Document) UserByEmail(email string) *User {
	for i := range d.Users {
		if d.Users[i].Email == email {
			return &d.Users[i]
		}
	}
	return nil
}

// UserByID returns a pointer into the document, or nil.
func (d *Document) UserByID(id int64) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// EventByID returns a pointer into the document, or nil.
func (d *Document) EventByID(id int64) *Event {
	for i := range d.Events {
		if d.Events[i].ID == id {
			return &d.Events[i]
		}
	}
	return nil
}

// NextUserID allocates the next monotonic user ID. Call only from Update.
func (d *Document) NextUserID() int64 {
	d.LastIDs.Users++
	return d.LastIDs.Users
}

// NextEventID allocates the next monotonic event ID. Call only from Update.
func (d *Document) NextEventID() int64 {
	d.LastIDs.Events++
	return d.LastIDs.Events
}

// clone deep-copies the document so a failed Update cannot leave partial
// mutations visible in the live mirror.
func (d *Document) clone() *Document {
	out := &Document{
		Version: d.Version,
		Users:   make([]User, len(d.Users)),
		Events:  make([]Event, len(d.Events)),
		LastIDs: d.LastIDs,
	}
	copy(out.Users, d.Users)
	for i, ev := range d.Events {
		out.Events[i] = ev
		out.Events[i].LikedBy = append([]string(nil), ev.LikedBy...)
		out.Events[i].SavedBy = append([]string(nil), ev.SavedBy...)
	}
	return out
}

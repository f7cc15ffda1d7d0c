package catalogdata

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"vislog/pkg/catalog"
)

// ProgramSummary is the lightweight projection of a Program used by list and
// search endpoints: full program trees are expensive to assemble, so listing
// queries select only the columns needed to render a result row.
type ProgramSummary struct {
	GUID  string
	URL   string
	Title string
}

// Store persists parsed Programs and reconstructs them on read. Both the
// SQLite (default, see sqliteStore below) and Postgres (pgstore.go, opt-in)
// backends implement it identically so cmd/fetchcatalog and pkg/catalogapi
// depend on behavior, not on a specific SQL driver.
type Store interface {
	SaveProgram(ctx context.Context, p *catalog.Program) error
	GetProgram(ctx context.Context, guid catalog.GUID) (*catalog.Program, error)
	ListPrograms(ctx context.Context) ([]ProgramSummary, error)
	SearchPrograms(ctx context.Context, q string) ([]ProgramSummary, error)
	Close() error
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS programs (
	program_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	guid         TEXT UNIQUE NOT NULL,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS requirement_modules (
	module_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	program_id       INTEGER NOT NULL REFERENCES programs(program_id) ON DELETE CASCADE,
	parent_module_id INTEGER REFERENCES requirement_modules(module_id) ON DELETE CASCADE,
	display_order    INTEGER NOT NULL,
	kind             TEXT NOT NULL,
	title            TEXT,
	label_title      TEXT,
	raw_json         TEXT
);

CREATE TABLE IF NOT EXISTS requirements (
	requirement_id INTEGER PRIMARY KEY AUTOINCREMENT,
	module_id      INTEGER NOT NULL REFERENCES requirement_modules(module_id) ON DELETE CASCADE,
	display_order  INTEGER NOT NULL,
	kind           TEXT NOT NULL,
	title          TEXT,
	narrative      TEXT
);

CREATE TABLE IF NOT EXISTS course_entries (
	entry_id        INTEGER PRIMARY KEY AUTOINCREMENT,
	requirement_id  INTEGER NOT NULL REFERENCES requirements(requirement_id) ON DELETE CASCADE,
	parent_entry_id INTEGER REFERENCES course_entries(entry_id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	operator        TEXT NOT NULL DEFAULT 'NONE',
	kind            TEXT NOT NULL,
	guid            TEXT,
	url             TEXT,
	path            TEXT,
	subject_code    TEXT,
	subject_name    TEXT,
	number          TEXT,
	name            TEXT,
	credits_lower   INTEGER,
	credits_upper   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_course_entries_requirement ON course_entries(requirement_id);
CREATE INDEX IF NOT EXISTS idx_course_entries_parent ON course_entries(parent_entry_id);
`

// sqliteStore is the default Store backend: a single *sql.DB, query-then-scan
// reads, and one transaction per program write.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and, if needed, creates) the SQLite database at
// dbPath and ensures its schema exists.
func NewSQLiteStore(dbPath string) (Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps the PRAGMAs below in effect for every query,
	// and stops a :memory: database from splitting across pool connections.
	// SQLite only allows one writer at a time anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	// SQLite ignores ON DELETE CASCADE unless foreign keys are switched on,
	// and SaveProgram's delete-then-reinsert relies on the cascade to clear
	// the old module/requirement/entry rows.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// OpenStore opens the Store backend named by cfg.Driver ("sqlite" or
// "postgres"), against cfg.DSN.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.DSN)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// SaveProgram replaces any existing row for p.GUID and writes the program,
// its requirement modules, requirements, and course-entry tree inside a
// single transaction; if any step fails the whole write rolls back, so a
// program is never left half-ingested.
func (s *sqliteStore) SaveProgram(ctx context.Context, p *catalog.Program) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	guidStr := guidString(p.GUID)

	if _, err := tx.ExecContext(ctx, `DELETE FROM programs WHERE guid = ?`, guidStr); err != nil {
		return fmt.Errorf("clear existing program: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO programs (guid, url, title) VALUES (?, ?, ?)`,
		guidStr, p.URL, p.Title)
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	programID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("program id: %w", err)
	}

	if p.Requirements != nil {
		modules := flattenRequirements(*p.Requirements)
		for order, mod := range modules {
			if err := insertModule(ctx, tx, programID, order, mod); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func flattenRequirements(r catalog.Requirements) []catalog.RequirementModule {
	switch r.Kind {
	case catalog.RequirementsSingle:
		if r.Single == nil {
			return nil
		}
		return []catalog.RequirementModule{*r.Single}
	case catalog.RequirementsMany:
		return r.Many
	default:
		// RequirementsSelectTrack: passthrough, nothing structured to store.
		return nil
	}
}

func insertModule(ctx context.Context, tx *sql.Tx, programID int64, order int, mod catalog.RequirementModule) error {
	kind := mod.Kind.String()
	var rawJSON interface{}
	if len(mod.Raw) > 0 {
		rawJSON = string(mod.Raw)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO requirement_modules (program_id, parent_module_id, display_order, kind, title, label_title, raw_json)
		 VALUES (?, NULL, ?, ?, ?, ?, ?)`,
		programID, order, kind, nullableStringPtr(mod.Title), nullableString(mod.LabelTitle), rawJSON)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	moduleID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	var reqs []catalog.Requirement
	switch mod.Kind {
	case catalog.ModuleSingleBasicRequirement:
		if mod.Requirement != nil {
			reqs = []catalog.Requirement{*mod.Requirement}
		}
	case catalog.ModuleBasicRequirements:
		reqs = mod.Requirements
	case catalog.ModuleSelectOneEmphasis:
		reqs = mod.Emphases
	}

	for order, req := range reqs {
		if err := insertRequirement(ctx, tx, moduleID, order, req); err != nil {
			return err
		}
	}
	return nil
}

func insertRequirement(ctx context.Context, tx *sql.Tx, moduleID int64, order int, req catalog.Requirement) error {
	kind := req.Kind.String()

	var title interface{}
	var narrative interface{}
	var entries catalog.CourseEntries

	switch req.Kind {
	case catalog.RequirementCourses:
		title = nullableStringPtr(req.Title)
		entries = req.Courses
	case catalog.RequirementSelectFromCourses:
		title = nullableString(req.SelectTitle)
		if req.SelectCourses != nil {
			entries = *req.SelectCourses
		}
	case catalog.RequirementLabel:
		title = nullableStringPtr(req.Title)
		narrative = nullableStringPtr(req.Narrative)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO requirements (module_id, display_order, kind, title, narrative)
		 VALUES (?, ?, ?, ?, ?)`,
		moduleID, order, kind, title, narrative)
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	requirementID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for pos, entry := range entries {
		if _, err := insertCourseEntry(ctx, tx, requirementID, nil, pos, entry); err != nil {
			return err
		}
	}
	return nil
}

// insertCourseEntry writes one node of a CourseEntries tree and recurses
// into And/Or children, threading parent_entry_id: insert the parent first,
// resolve its real ID, then insert children referencing it.
func insertCourseEntry(ctx context.Context, tx *sql.Tx, requirementID int64, parentEntryID *int64, position int, entry catalog.CourseEntry) (int64, error) {
	kind := entry.Kind.String()
	operator := "NONE"
	if entry.Kind == catalog.EntryAnd {
		operator = "AND"
	} else if entry.Kind == catalog.EntryOr {
		operator = "OR"
	}

	var guid, url, path, subjectCode, subjectName, number, name interface{}
	var lower, upper interface{}

	switch entry.Kind {
	case catalog.EntryCourse:
		c := entry.Course
		guid = guidString(c.GUID)
		url = c.URL
		path = c.Path
		subjectCode = c.SubjectCode
		subjectName = nullableString(c.SubjectName)
		number = fmt.Sprintf("%d", c.Number)
		name = nullableString(c.Name)
		lower = int(c.Credits.Lower)
		upper = nullableUint8Ptr(c.Credits.Upper)
	case catalog.EntryLabel:
		l := entry.Label
		guid = guidString(l.GUID)
		url = l.URL
		subjectCode = nullableString(l.SubjectCode)
		number = nullableString(l.Number)
		name = l.Name
		lower = int(l.Credits.Lower)
		upper = nullableUint8Ptr(l.Credits.Upper)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO course_entries
		   (requirement_id, parent_entry_id, position, operator, kind,
		    guid, url, path, subject_code, subject_name, number, name, credits_lower, credits_upper)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requirementID, parentEntryID, position, operator, kind,
		guid, url, path, subjectCode, subjectName, number, name, lower, upper)
	if err != nil {
		return 0, fmt.Errorf("insert course entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for childPos, child := range entry.Group {
		if _, err := insertCourseEntry(ctx, tx, requirementID, &entryID, childPos, child); err != nil {
			return 0, err
		}
	}
	return entryID, nil
}

// GetProgram reads a program back by GUID and reconstructs its full
// requirement tree, walking requirement_modules → requirements →
// course_entries and mapping each child row to its parent by ID.
func (s *sqliteStore) GetProgram(ctx context.Context, guid catalog.GUID) (*catalog.Program, error) {
	guidStr := guidString(guid)

	var p catalog.Program
	var programID int64
	row := s.db.QueryRowContext(ctx, `SELECT program_id, guid, url, title FROM programs WHERE guid = ?`, guidStr)
	var rowGUID string
	if err := row.Scan(&programID, &rowGUID, &p.URL, &p.Title); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load program: %w", err)
	}
	p.GUID = guid

	modules, err := s.loadModules(ctx, programID)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return &p, nil
	}
	if len(modules) == 1 {
		m := modules[0]
		p.Requirements = &catalog.Requirements{Kind: catalog.RequirementsSingle, Single: &m}
	} else {
		p.Requirements = &catalog.Requirements{Kind: catalog.RequirementsMany, Many: modules}
	}
	return &p, nil
}

func (s *sqliteStore) loadModules(ctx context.Context, programID int64) ([]catalog.RequirementModule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module_id, kind, title, label_title, raw_json
		   FROM requirement_modules
		  WHERE program_id = ? AND parent_module_id IS NULL
		  ORDER BY display_order`, programID)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	defer rows.Close()

	type row struct {
		id  int64
		mod catalog.RequirementModule
	}
	var scanned []row
	for rows.Next() {
		var id int64
		var kind string
		var title, labelTitle, rawJSON sql.NullString
		if err := rows.Scan(&id, &kind, &title, &labelTitle, &rawJSON); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		parsedKind, _ := catalog.ParseModuleKind(kind)
		mod := catalog.RequirementModule{Kind: parsedKind}
		if title.Valid {
			t := title.String
			mod.Title = &t
		}
		mod.LabelTitle = labelTitle.String
		if rawJSON.Valid {
			mod.Raw = []byte(rawJSON.String)
		}
		scanned = append(scanned, row{id: id, mod: mod})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.RequirementModule, len(scanned))
	for i, sc := range scanned {
		reqs, err := s.loadRequirements(ctx, sc.id)
		if err != nil {
			return nil, err
		}
		mod := sc.mod
		switch mod.Kind {
		case catalog.ModuleSingleBasicRequirement:
			if len(reqs) > 0 {
				mod.Requirement = &reqs[0]
			}
		case catalog.ModuleBasicRequirements:
			mod.Requirements = reqs
		case catalog.ModuleSelectOneEmphasis:
			mod.Emphases = reqs
		}
		out[i] = mod
	}
	return out, nil
}

func (s *sqliteStore) loadRequirements(ctx context.Context, moduleID int64) ([]catalog.Requirement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT requirement_id, kind, title, narrative
		   FROM requirements WHERE module_id = ? ORDER BY display_order`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	defer rows.Close()

	type row struct {
		id  int64
		req catalog.Requirement
	}
	var scanned []row
	for rows.Next() {
		var id int64
		var kind string
		var title, narrative sql.NullString
		if err := rows.Scan(&id, &kind, &title, &narrative); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		parsedKind, _ := catalog.ParseReqKind(kind)
		req := catalog.Requirement{Kind: parsedKind}
		switch parsedKind {
		case catalog.RequirementSelectFromCourses:
			req.SelectTitle = title.String
		default:
			if title.Valid {
				t := title.String
				req.Title = &t
			}
		}
		if narrative.Valid {
			n := narrative.String
			req.Narrative = &n
		}
		scanned = append(scanned, row{id: id, req: req})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.Requirement, len(scanned))
	for i, sc := range scanned {
		entries, err := s.loadCourseEntries(ctx, sc.id)
		if err != nil {
			return nil, err
		}
		req := sc.req
		switch req.Kind {
		case catalog.RequirementCourses:
			req.Courses = entries
		case catalog.RequirementSelectFromCourses:
			req.SelectCourses = &entries
		}
		out[i] = req
	}
	return out, nil
}

type entryRow struct {
	id       int64
	parent   *int64
	position int
	kind     string
	guid     sql.NullString
	url      sql.NullString
	path     sql.NullString
	subject  sql.NullString
	subjectN sql.NullString
	number   sql.NullString
	name     sql.NullString
	lower    sql.NullInt64
	upper    sql.NullInt64
}

// loadCourseEntries rebuilds a CourseEntries tree from its flattened rows by
// mapping each row to its children through parent_entry_id, then walking the
// roots depth-first to rebuild the nested And/Or structure.
func (s *sqliteStore) loadCourseEntries(ctx context.Context, requirementID int64) (catalog.CourseEntries, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, parent_entry_id, position, kind, guid, url, path,
		        subject_code, subject_name, number, name, credits_lower, credits_upper
		   FROM course_entries WHERE requirement_id = ? ORDER BY parent_entry_id, position`, requirementID)
	if err != nil {
		return nil, fmt.Errorf("load course entries: %w", err)
	}
	defer rows.Close()

	byID := map[int64]*entryRow{}
	childrenOf := map[int64][]int64{}
	var roots []int64

	for rows.Next() {
		var r entryRow
		var parent sql.NullInt64
		if err := rows.Scan(&r.id, &parent, &r.position, &r.kind, &r.guid, &r.url, &r.path,
			&r.subject, &r.subjectN, &r.number, &r.name, &r.lower, &r.upper); err != nil {
			return nil, fmt.Errorf("scan course entry: %w", err)
		}
		if parent.Valid {
			r.parent = &parent.Int64
			childrenOf[parent.Int64] = append(childrenOf[parent.Int64], r.id)
		} else {
			roots = append(roots, r.id)
		}
		byID[r.id] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var build func(id int64) catalog.CourseEntry
	build = func(id int64) catalog.CourseEntry {
		r := byID[id]
		parsedKind, _ := catalog.ParseEntryKind(r.kind)
		ce := catalog.CourseEntry{Kind: parsedKind}
		switch ce.Kind {
		case catalog.EntryCourse:
			ce.Course = rowToCourse(r)
		case catalog.EntryLabel:
			ce.Label = rowToLabel(r)
		case catalog.EntryAnd, catalog.EntryOr:
			for _, childID := range childrenOf[id] {
				ce.Group = append(ce.Group, build(childID))
			}
		}
		return ce
	}

	var out catalog.CourseEntries
	for _, id := range roots {
		out = append(out, build(id))
	}
	return out, nil
}

func rowToCourse(r *entryRow) *catalog.Course {
	guid, _ := catalog.ParseGUID(r.guid.String)
	var number uint64
	fmt.Sscanf(r.number.String, "%d", &number)
	c := &catalog.Course{
		GUID:        guid,
		URL:         r.url.String,
		Path:        r.path.String,
		SubjectCode: r.subject.String,
		SubjectName: r.subjectN.String,
		Number:      uint32(number),
		Name:        r.name.String,
		Credits:     catalog.Credits{Lower: uint8(r.lower.Int64)},
	}
	if r.upper.Valid {
		u := uint8(r.upper.Int64)
		c.Credits.Upper = &u
	}
	return c
}

func rowToLabel(r *entryRow) *catalog.Label {
	guid, _ := catalog.ParseGUID(r.guid.String)
	l := &catalog.Label{
		GUID:        guid,
		URL:         r.url.String,
		Name:        r.name.String,
		Number:      r.number.String,
		SubjectCode: r.subject.String,
		Credits:     catalog.Credits{Lower: uint8(r.lower.Int64)},
	}
	if r.upper.Valid {
		u := uint8(r.upper.Int64)
		l.Credits.Upper = &u
	}
	return l
}

func (s *sqliteStore) ListPrograms(ctx context.Context) ([]ProgramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT guid, url, title FROM programs ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	out := []ProgramSummary{}
	for rows.Next() {
		var p ProgramSummary
		if err := rows.Scan(&p.GUID, &p.URL, &p.Title); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SearchPrograms performs a substring search over program titles.
func (s *sqliteStore) SearchPrograms(ctx context.Context, q string) ([]ProgramSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guid, url, title FROM programs WHERE title LIKE ? ORDER BY title`,
		"%"+q+"%")
	if err != nil {
		return nil, fmt.Errorf("search programs: %w", err)
	}
	defer rows.Close()

	out := []ProgramSummary{}
	for rows.Next() {
		var p ProgramSummary
		if err := rows.Scan(&p.GUID, &p.URL, &p.Title); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func guidString(g catalog.GUID) string {
	return fmt.Sprintf("%x", g[:])
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableStringPtr(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableUint8Ptr(u *uint8) interface{} {
	if u == nil {
		return nil
	}
	return int(*u)
}


package catalog

// Parser reconstructs a CourseEntries tree from a flat sequence of raw
// entries. It is single-use: Parse consumes it, and a second call returns
// ErrParserExhausted. Reuse is guarded with an explicit flag checked on
// entry.
type Parser struct {
	raw      []RawCourseEntry
	consumed bool
}

// NewParser builds a Parser over an ordered sequence of raw entries.
func NewParser(entries []RawCourseEntry) *Parser {
	return &Parser{raw: entries}
}

// Parse classifies and consumes the entire input sequence, returning the
// assembled tree or the first error encountered. Calling Parse a second time
// on the same Parser returns ErrParserExhausted.
func (p *Parser) Parse() (CourseEntries, error) {
	if p.consumed {
		return nil, ErrParserExhausted
	}
	p.consumed = true

	if len(p.raw) == 0 {
		return CourseEntries{}, nil
	}

	m := &machine{}
	for _, raw := range p.raw {
		ce, err := classifyEntry(raw)
		if err != nil {
			return nil, err
		}
		if err := m.step(ce); err != nil {
			return nil, err
		}
	}
	return m.finish()
}

// machine is the grouping parser's working memory: the buffer of entries
// belonging to the group currently being assembled, the operator for that
// group (if known), the nest operator once a nesting has been opened, and
// the emitted top-level list (whose last element is mutated in place while
// a nest is being filled in).
type machine struct {
	state State

	buf CourseEntries

	op operator

	nestOp    operator
	nestOpSet bool

	entries CourseEntries
}

func (m *machine) pushBuf(leaf CourseEntry) {
	m.buf = append(m.buf, leaf)
}

func (m *machine) takeBuf() CourseEntries {
	b := m.buf
	m.buf = nil
	return b
}

// flushGroup turns the current buffer and operator into a single And/Or
// node, clearing the buffer. It also returns the operator used, since
// callers frequently need it again to decide a nest's operator.
func (m *machine) flushGroup() (CourseEntry, operator) {
	op := m.op
	buf := m.takeBuf()
	return newGroup(op, buf), op
}

// closeSubgroup flushes the current buffer/operator as a child of the
// innermost nest (the last element of entries), failing with
// ErrDoubleNesting if the subgroup's operator does not match the nest's.
func (m *machine) closeSubgroup() error {
	child, op := m.flushGroup()
	if !m.nestOpSet || op != m.nestOp {
		return ErrDoubleNesting
	}
	last := &m.entries[len(m.entries)-1]
	last.Group = append(last.Group, child)
	return nil
}

func invalidEntry(e classifiedEntry, s State) error {
	return &InvalidEntryError{Entry: e.kind.entryKind(), State: s}
}

func (m *machine) step(e classifiedEntry) error {
	switch m.state {
	case StateInitial:
		switch e.kind {
		case ckBlank:
			m.state = StateInitialBlankRead
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
			m.state = StateCourseDetection
		default:
			return invalidEntry(e, StateInitial)
		}

	case StateCourseDetection:
		switch e.kind {
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
		case ckBlank:
			m.entries = append(m.entries, m.takeBuf()...)
			m.state = StateInitialBlankRead
		case ckAnd, ckOr:
			m.op = e.kind.entryOperator()
			m.state = StateOperatorRead
		}

	case StateInitialBlankRead:
		switch e.kind {
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
			m.state = StateReadCourseNoOp
		default:
			return invalidEntry(e, StateInitialBlankRead)
		}

	case StateReadCourseNoOp:
		switch e.kind {
		case ckAnd, ckOr:
			m.op = e.kind.entryOperator()
			m.state = StateOperatorRead
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
		default:
			return invalidEntry(e, StateReadCourseNoOp)
		}

	case StateOperatorRead:
		switch e.kind {
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
			m.state = StateReadCourseWithOp
		default:
			return invalidEntry(e, StateOperatorRead)
		}

	case StateReadCourseWithOp:
		switch e.kind {
		case ckAnd, ckOr:
			newOp := e.kind.entryOperator()
			if newOp == m.op {
				m.state = StateOperatorRead
			} else {
				return invalidEntry(e, StateReadCourseWithOp)
			}
		case ckBlank:
			m.state = StateTerminatingBlankRead
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
		}

	case StateTerminatingBlankRead:
		switch e.kind {
		case ckAnd, ckOr:
			child, op := m.flushGroup()
			nestOp := e.kind.entryOperator()
			if nestOp != op {
				return ErrDoubleNesting
			}
			m.nestOp, m.nestOpSet = nestOp, true
			m.entries = append(m.entries, newGroup(nestOp, CourseEntries{child}))
			m.state = StateNestingOperatorRead
		case ckBlank:
			child, op := m.flushGroup()
			m.nestOp, m.nestOpSet = op, true
			m.entries = append(m.entries, newGroup(op, CourseEntries{child}))
			m.state = StateNestedInitialBlankRead
		case ckCourse, ckLabel:
			entry, _ := m.flushGroup()
			m.entries = append(m.entries, entry)
			m.pushBuf(e.toLeaf())
			m.state = StateCourseDetection
		}

	case StateNestingOperatorRead:
		switch e.kind {
		case ckBlank:
			m.state = StateNestedInitialBlankRead
		default:
			return invalidEntry(e, StateNestingOperatorRead)
		}

	case StateNestedInitialBlankRead:
		switch e.kind {
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
			m.state = StateNestedReadCourseNoOp
		default:
			return invalidEntry(e, StateNestedInitialBlankRead)
		}

	case StateNestedReadCourseNoOp:
		switch e.kind {
		case ckAnd, ckOr:
			m.op = e.kind.entryOperator()
			m.state = StateNestedOperatorRead
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
		default:
			return invalidEntry(e, StateNestedReadCourseNoOp)
		}

	case StateNestedOperatorRead:
		switch e.kind {
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
			m.state = StateNestedReadCourseWithOp
		default:
			return invalidEntry(e, StateNestedOperatorRead)
		}

	case StateNestedReadCourseWithOp:
		switch e.kind {
		case ckBlank:
			m.state = StateNestedTerminatingBlankRead
		case ckCourse, ckLabel:
			m.pushBuf(e.toLeaf())
		default:
			return invalidEntry(e, StateNestedReadCourseWithOp)
		}

	case StateNestedTerminatingBlankRead:
		switch e.kind {
		case ckAnd, ckOr:
			if err := m.closeSubgroup(); err != nil {
				return err
			}
			if e.kind.entryOperator() != m.nestOp {
				return ErrDoubleNesting
			}
			m.state = StateNestingOperatorRead
		case ckCourse, ckLabel:
			if err := m.closeSubgroup(); err != nil {
				return err
			}
			m.pushBuf(e.toLeaf())
			m.state = StateNestedReadCourseNoOp
		default:
			return invalidEntry(e, StateNestedTerminatingBlankRead)
		}
	}

	return nil
}

func (m *machine) finish() (CourseEntries, error) {
	switch m.state {
	case StateCourseDetection:
		m.entries = append(m.entries, m.takeBuf()...)
		return m.entries, nil

	case StateReadCourseWithOp, StateTerminatingBlankRead:
		child, _ := m.flushGroup()
		m.entries = append(m.entries, child)
		return m.entries, nil

	case StateNestedReadCourseWithOp, StateNestedTerminatingBlankRead:
		if err := m.closeSubgroup(); err != nil {
			return nil, err
		}
		return m.entries, nil

	default:
		return nil, &InvalidFinishError{State: m.state}
	}
}

func (k classifiedKind) entryOperator() operator {
	if k == ckAnd {
		return opAnd
	}
	return opOr
}

// Package planner turns a structural diff into an ordered, classified migration plan.
//
// Steps are emitted in three phases. Enums are created and constraints are dropped first, then tables
// and columns change, then indexes and foreign keys are created and enums dropped. Foreign keys are
// always added after every table exists, which resolves cyclic references without special casing.
// Connectors that cannot add constraints to existing tables declare them inline instead.
package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/satishbabariya/schema-engine/internal/debug"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// Connector is what the planner needs to know about the target database.
type Connector interface {
	Supports(kind connector.StepKind) bool
	SupportsScalarLists() bool
	EnumStrategy() connector.EnumStrategy
	AllowsExpressionDefaultsOnAdd() bool
	Widens(family schema.Family, from, to *schema.NativeType) bool
	FoldNames() bool
}

// TableStats holds known row counts by table name. Tables missing from it are treated as populated.
type TableStats map[string]int64

// Option configures a Planner.
type Option func(*Planner)

// WithTableStats lets the planner downgrade warnings on tables known to be empty.
func WithTableStats(stats TableStats) Option {
	return func(p *Planner) {
		p.stats = stats
	}
}

// Planner orders diffs for one connector.
type Planner struct {
	conn  Connector
	stats TableStats
}

// NewPlanner creates a planner for a connector.
func NewPlanner(conn Connector, opts ...Option) *Planner {
	p := &Planner{conn: conn}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan orders and classifies a diff computed between current and desired. It never mutates its
// inputs.
func (p *Planner) Plan(d *diff.SchemaDiff, current, desired *schema.SchemaModel) (*Plan, error) {
	if current == nil {
		current = &schema.SchemaModel{}
	}
	if desired == nil {
		desired = &schema.SchemaModel{}
	}
	if err := checkEnumReferences(desired); err != nil {
		return nil, err
	}

	b := &build{
		p:             p,
		d:             d,
		current:       current,
		desired:       desired,
		droppedFKs:    make(map[*schema.ForeignKey]bool),
		addedFKs:      make(map[*schema.ForeignKey]bool),
		droppedIdx:    make(map[*schema.Index]bool),
		createdIdx:    make(map[*schema.Index]bool),
		inlineChanges: make(map[string]*diff.EnumDiff),
	}
	b.planEnums()
	for _, td := range b.tableChanges() {
		if b.needsRedefine(td) {
			b.redefineTable(td)
		} else {
			b.alterTable(td)
		}
	}
	b.createTables()
	b.dropTables()

	plan := &Plan{Steps: b.assemble()}
	for _, s := range plan.Steps {
		s.Phase = phaseOf(s.Kind)
		s.Destructiveness = b.classify(s)
	}
	if err := verifyEnumOrder(plan.Steps); err != nil {
		return nil, err
	}

	debug.Debug("planned migration", "steps", len(plan.Steps), "destructiveness", plan.Destructiveness().Level)
	return plan, nil
}

// build is the state of one Plan call.
type build struct {
	p                *Planner
	d                *diff.SchemaDiff
	current, desired *schema.SchemaModel

	enumSteps     []*Step
	dropFKs       []*Step
	dropIndexes   []*Step
	redefines     []*Step
	creates       []*Step
	columns       []*Step
	drops         []*Step
	createIndexes []*Step
	addFKs        []*Step
	dropEnums     []*Step

	droppedFKs map[*schema.ForeignKey]bool
	addedFKs   map[*schema.ForeignKey]bool
	droppedIdx map[*schema.Index]bool
	createdIdx map[*schema.Index]bool

	// inlineChanges holds enum diffs on connectors that declare enum values per column.
	inlineChanges map[string]*diff.EnumDiff
}

func (b *build) assemble() []*Step {
	var out []*Step
	for _, bucket := range [][]*Step{
		b.enumSteps, b.dropFKs, b.dropIndexes, b.redefines, b.creates, b.columns, b.drops,
		b.createIndexes, b.addFKs, b.dropEnums,
	} {
		out = append(out, bucket...)
	}
	return out
}

func (b *build) conn() Connector { return b.p.conn }

func (b *build) sameTable(x, y string) bool {
	if b.conn().FoldNames() {
		return strings.EqualFold(x, y)
	}
	return x == y
}

func (b *build) planEnums() {
	if b.conn().EnumStrategy() == connector.EnumsInline {
		for _, ed := range b.d.EnumChanges {
			b.inlineChanges[ed.Name()] = ed
		}
		return
	}
	for _, e := range b.d.CreatedEnums {
		b.enumSteps = append(b.enumSteps, &Step{Kind: connector.CreateEnum, Enum: e})
	}
	for _, ed := range b.d.EnumChanges {
		b.enumSteps = append(b.enumSteps, &Step{
			Kind:      connector.AlterEnum,
			Enum:      ed.Next,
			EnumDiff:  ed,
			EnumUsers: b.enumUsers(ed.Previous.Name),
		})
	}
	for _, e := range b.d.DroppedEnums {
		b.dropEnums = append(b.dropEnums, &Step{Kind: connector.DropEnum, Enum: e})
	}
}

func (b *build) enumUsers(enum string) []EnumUser {
	var out []EnumUser
	for _, ref := range b.current.EnumUsers(enum) {
		out = append(out, EnumUser{Table: ref.Table, Column: b.current.Table(ref.Table).Column(ref.Column)})
	}
	return out
}

// tableChanges returns the diff's table changes plus, on inline-enum connectors, a type change for
// every surviving column whose enum values changed. The diff itself is left untouched.
func (b *build) tableChanges() []*diff.TableDiff {
	if len(b.inlineChanges) == 0 {
		return b.d.TableChanges
	}

	byTable := make(map[*schema.Table]*diff.TableDiff)
	var out []*diff.TableDiff
	for _, td := range b.d.TableChanges {
		cp := *td
		cp.ColumnChanges = slices.Clone(td.ColumnChanges)
		byTable[td.Next] = &cp
		out = append(out, &cp)
	}

	for _, next := range b.desired.Tables {
		prev := b.findTable(b.current, next.Name)
		if prev == nil {
			continue
		}
		for _, c := range next.Columns {
			if c.Type.Family != schema.FamilyEnum || b.inlineChanges[c.Type.Enum] == nil {
				continue
			}
			pc := prev.Column(c.Name)
			if pc == nil {
				continue
			}
			td, ok := byTable[next]
			if !ok {
				td = &diff.TableDiff{Previous: prev, Next: next}
				byTable[next] = td
				out = append(out, td)
			}
			if idx := slices.IndexFunc(td.ColumnChanges, func(cd *diff.ColumnDiff) bool { return cd.Next == c }); idx >= 0 {
				cd := *td.ColumnChanges[idx]
				cd.Changes |= diff.TypeChanged
				td.ColumnChanges[idx] = &cd
				continue
			}
			td.ColumnChanges = append(td.ColumnChanges, &diff.ColumnDiff{Previous: pc, Next: c, Changes: diff.TypeChanged})
		}
	}
	slices.SortStableFunc(out, func(x, y *diff.TableDiff) int { return strings.Compare(x.Name(), y.Name()) })
	return out
}

func (b *build) findTable(m *schema.SchemaModel, name string) *schema.Table {
	if b.conn().FoldNames() {
		return m.TableFold(name)
	}
	return m.Table(name)
}

func (b *build) needsRedefine(td *diff.TableDiff) bool {
	c := b.conn()
	switch {
	case td.PrimaryKeyChanged():
		return true
	case len(td.ColumnChanges) > 0 && !c.Supports(connector.AlterColumn):
		return true
	case len(td.DroppedColumns) > 0 && !c.Supports(connector.DropColumn):
		return true
	case len(td.CreatedColumns) > 0 && !c.Supports(connector.AddColumn):
		return true
	case len(td.CreatedForeignKeys) > 0 && !c.Supports(connector.AddForeignKey):
		return true
	case len(td.DroppedForeignKeys) > 0 && !c.Supports(connector.DropForeignKey):
		return true
	}
	if !c.AllowsExpressionDefaultsOnAdd() {
		for _, col := range td.CreatedColumns {
			if col.Default != nil && col.Default.Kind != schema.DefaultLiteral {
				return true
			}
		}
	}
	return false
}

func (b *build) redefineTable(td *diff.TableDiff) {
	next := td.Next
	step := &Step{
		Kind:          connector.RedefineTable,
		Table:         next.Name,
		TableDef:      next,
		PreviousTable: td.Previous,
		TableDiff:     td,
		Enums:         b.inlineEnums(next.Columns...),
	}
	b.redefines = append(b.redefines, step)

	if b.conn().Supports(connector.AddForeignKey) {
		for _, fk := range td.Previous.ForeignKeys {
			b.dropForeignKey(td.Previous.Name, fk)
		}
		for _, fk := range next.ForeignKeys {
			b.addForeignKey(next.Name, fk)
		}
		b.recreateIncoming(td.Previous.Name, nil)
	} else {
		step.ForeignKeys = next.ForeignKeys
	}

	// The rebuilt table starts without secondary indexes.
	for _, idx := range next.Indexes {
		b.createIndex(next.Name, idx)
	}
}

func (b *build) alterTable(td *diff.TableDiff) {
	prev, next := td.Previous, td.Next
	touched := make(map[string]bool)

	var drops, alters, adds []*Step
	for _, cd := range td.ColumnChanges {
		if recreate(cd) {
			touched[cd.Name()] = true
			drops = append(drops, &Step{Kind: connector.DropColumn, Table: next.Name, Column: cd.Previous})
			adds = append(adds, &Step{Kind: connector.AddColumn, Table: next.Name, Column: cd.Next,
				Enums: b.inlineEnums(cd.Next)})
			continue
		}
		if cd.Changes.Has(diff.TypeChanged) {
			touched[cd.Name()] = true
		}
		alters = append(alters, &Step{
			Kind:     connector.AlterColumn,
			Table:    next.Name,
			Column:   cd.Next,
			Previous: cd.Previous,
			Changes:  cd.Changes,
			Enums:    b.inlineEnums(cd.Next),
		})
	}
	for _, c := range td.DroppedColumns {
		drops = append(drops, &Step{Kind: connector.DropColumn, Table: next.Name, Column: c})
	}
	for _, c := range td.CreatedColumns {
		adds = append(adds, &Step{Kind: connector.AddColumn, Table: next.Name, Column: c, Enums: b.inlineEnums(c)})
	}
	b.columns = append(b.columns, drops...)
	b.columns = append(b.columns, alters...)
	b.columns = append(b.columns, adds...)

	for _, idx := range td.DroppedIndexes {
		b.dropIndex(prev.Name, idx)
	}
	for _, idx := range prev.Indexes {
		if coversAny(idx.Columns, touched) {
			b.dropIndex(prev.Name, idx)
		}
	}
	for _, idx := range td.CreatedIndexes {
		b.createIndex(next.Name, idx)
	}
	for _, idx := range next.Indexes {
		if coversAny(idx.Columns, touched) {
			b.createIndex(next.Name, idx)
		}
	}

	for _, fk := range td.DroppedForeignKeys {
		b.dropForeignKey(prev.Name, fk)
	}
	for _, fk := range prev.ForeignKeys {
		if coversAny(fk.Columns, touched) {
			b.dropForeignKey(prev.Name, fk)
		}
	}
	for _, fk := range td.CreatedForeignKeys {
		b.addForeignKey(next.Name, fk)
	}
	for _, fk := range next.ForeignKeys {
		if coversAny(fk.Columns, touched) {
			b.addForeignKey(next.Name, fk)
		}
	}
	if len(touched) > 0 {
		b.recreateIncoming(prev.Name, touched)
	}
}

// recreate reports whether a column change can only be expressed by dropping and re-adding the column.
func recreate(cd *diff.ColumnDiff) bool {
	return cd.Changes.Has(diff.ArityChanged)
}

// recreateIncoming drops the foreign keys other tables hold on a table, limited to those referencing
// the given columns when columns is non-nil, and re-adds their desired versions.
func (b *build) recreateIncoming(table string, columns map[string]bool) {
	if !b.conn().Supports(connector.DropForeignKey) || !b.conn().Supports(connector.AddForeignKey) {
		return
	}
	references := func(fk *schema.ForeignKey) bool {
		return b.sameTable(fk.ReferencedTable, table) && (columns == nil || coversAny(fk.ReferencedColumns, columns))
	}
	for _, t := range b.current.Tables {
		if b.sameTable(t.Name, table) {
			continue
		}
		for _, fk := range t.ForeignKeys {
			if references(fk) {
				b.dropForeignKey(t.Name, fk)
			}
		}
	}
	for _, t := range b.desired.Tables {
		if b.sameTable(t.Name, table) || b.findTable(b.current, t.Name) == nil {
			continue
		}
		for _, fk := range t.ForeignKeys {
			if references(fk) {
				b.addForeignKey(t.Name, fk)
			}
		}
	}
}

func (b *build) createTables() {
	if len(b.d.CreatedTables) == 0 {
		return
	}
	created := make(map[*schema.Table]bool, len(b.d.CreatedTables))
	for _, t := range b.d.CreatedTables {
		created[t] = true
	}

	g := newTableGraph(b.desired.Tables, b.conn().FoldNames())
	if cyclic := g.cyclic(); len(cyclic) > 0 {
		debug.Debug("foreign key cycle resolved by deferred constraints", "tables", len(cyclic))
	}
	inline := !b.conn().Supports(connector.AddForeignKey)
	for _, name := range g.order() {
		t := b.desired.Table(name)
		if !created[t] {
			continue
		}
		step := &Step{Kind: connector.CreateTable, Table: t.Name, TableDef: t, Enums: b.inlineEnums(t.Columns...)}
		b.creates = append(b.creates, step)
		if inline {
			step.ForeignKeys = t.ForeignKeys
		} else {
			for _, fk := range t.ForeignKeys {
				b.addForeignKey(t.Name, fk)
			}
		}
		for _, idx := range t.Indexes {
			b.createIndex(t.Name, idx)
		}
	}
}

func (b *build) dropTables() {
	if len(b.d.DroppedTables) == 0 {
		return
	}
	dropped := make(map[*schema.Table]bool, len(b.d.DroppedTables))
	for _, t := range b.d.DroppedTables {
		dropped[t] = true
	}

	g := newTableGraph(b.current.Tables, b.conn().FoldNames())
	order := g.order()
	for i := len(order) - 1; i >= 0; i-- {
		t := b.current.Table(order[i])
		if !dropped[t] {
			continue
		}
		if b.conn().Supports(connector.DropForeignKey) {
			for _, fk := range t.ForeignKeys {
				b.dropForeignKey(t.Name, fk)
			}
		}
		b.drops = append(b.drops, &Step{Kind: connector.DropTable, Table: t.Name, TableDef: t})
	}
}

func (b *build) dropForeignKey(table string, fk *schema.ForeignKey) {
	if b.droppedFKs[fk] {
		return
	}
	b.droppedFKs[fk] = true
	b.dropFKs = append(b.dropFKs, &Step{Kind: connector.DropForeignKey, Table: table, ForeignKey: fk})
}

func (b *build) addForeignKey(table string, fk *schema.ForeignKey) {
	if b.addedFKs[fk] {
		return
	}
	b.addedFKs[fk] = true
	b.addFKs = append(b.addFKs, &Step{Kind: connector.AddForeignKey, Table: table, ForeignKey: fk})
}

func (b *build) dropIndex(table string, idx *schema.Index) {
	if b.droppedIdx[idx] {
		return
	}
	b.droppedIdx[idx] = true
	b.dropIndexes = append(b.dropIndexes, &Step{Kind: connector.DropIndex, Table: table, Index: idx})
}

func (b *build) createIndex(table string, idx *schema.Index) {
	if b.createdIdx[idx] {
		return
	}
	b.createdIdx[idx] = true
	b.createIndexes = append(b.createIndexes, &Step{Kind: connector.CreateIndex, Table: table, Index: idx})
}

// inlineEnums returns the desired enums used by the given columns on inline-enum connectors.
func (b *build) inlineEnums(cols ...*schema.Column) []*schema.Enum {
	if b.conn().EnumStrategy() != connector.EnumsInline {
		return nil
	}
	var out []*schema.Enum
	for _, c := range cols {
		if c.Type.Family != schema.FamilyEnum {
			continue
		}
		if e := b.desired.Enum(c.Type.Enum); e != nil && !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func coversAny(columns []string, set map[string]bool) bool {
	for _, c := range columns {
		if set[c] {
			return true
		}
	}
	return false
}

// checkEnumReferences fails with schema.ErrInvalidModel when a desired column uses an enum the desired
// model does not define.
func checkEnumReferences(desired *schema.SchemaModel) error {
	for _, t := range desired.Tables {
		for _, c := range t.Columns {
			if c.Type.Family == schema.FamilyEnum && desired.Enum(c.Type.Enum) == nil {
				return fmt.Errorf("%w: %w", ErrDanglingEnum, &schema.ValidationError{
					Table: t.Name, Column: c.Name, Reason: fmt.Sprintf("references undefined enum %q", c.Type.Enum)})
			}
		}
	}
	return nil
}

// verifyEnumOrder checks that no step introduces a column using an enum the plan drops.
func verifyEnumOrder(steps []*Step) error {
	dropped := make(map[string]bool)
	for _, s := range steps {
		if s.Kind == connector.DropEnum {
			dropped[s.Enum.Name] = true
		}
	}
	if len(dropped) == 0 {
		return nil
	}
	for _, s := range steps {
		var cols []*schema.Column
		switch s.Kind {
		case connector.CreateTable, connector.RedefineTable:
			cols = s.TableDef.Columns
		case connector.AddColumn, connector.AlterColumn:
			cols = []*schema.Column{s.Column}
		}
		for _, c := range cols {
			if c.Type.Family == schema.FamilyEnum && dropped[c.Type.Enum] {
				return fmt.Errorf("%w: %w: %s uses enum %q after it is dropped", ErrInternal, ErrDanglingEnum,
					s.Description(), c.Type.Enum)
			}
		}
	}
	return nil
}

package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/drift"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

func intID() *schema.Column {
	return &schema.Column{Name: "id", Type: schema.ColumnType{Family: schema.FamilyInt}, PrimaryKey: true,
		Default: schema.Sequence()}
}

func col(name string, family schema.Family, arity schema.Arity) *schema.Column {
	return &schema.Column{Name: name, Type: schema.ColumnType{Family: family, Arity: arity}}
}

func enumCol(name, enum string, arity schema.Arity) *schema.Column {
	return &schema.Column{Name: name, Type: schema.ColumnType{Family: schema.FamilyEnum, Enum: enum, Arity: arity}}
}

func table(name string, cols ...*schema.Column) *schema.Table {
	return &schema.Table{Name: name, Columns: cols}
}

func fk(name, column, refTable string) *schema.ForeignKey {
	return &schema.ForeignKey{Name: name, Columns: []string{column}, ReferencedTable: refTable,
		ReferencedColumns: []string{"id"}}
}

func plan(t *testing.T, conn *connector.Descriptor, current, desired *schema.SchemaModel, opts ...Option) *Plan {
	t.Helper()
	current, desired = drift.Normalize(current, conn), drift.Normalize(desired, conn)
	p, err := NewPlanner(conn, opts...).Plan(diff.Diff(current, desired, conn), current, desired)
	require.NoError(t, err)
	return p
}

func kinds(p *Plan) []connector.StepKind {
	out := make([]connector.StepKind, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Kind
	}
	return out
}

func TestPlan_IdenticalModelsAreNoop(t *testing.T) {
	m := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID(), col("email", schema.FamilyString, schema.ArityRequired))}}

	for _, conn := range []*connector.Descriptor{connector.Postgres(), connector.MySQL(), connector.SQLite(), connector.SQLServer()} {
		p := plan(t, conn, m, m.Clone())
		assert.True(t, IsNoop(p), conn.Name)
	}
	assert.True(t, IsNoop(nil))
}

func TestPlan_EnumLifecycle(t *testing.T) {
	pg := connector.Postgres()
	empty := WithTableStats(TableStats{"Cat": 0})
	catMood := &schema.Enum{Name: "CatMood", Values: []string{"ANGRY", "HUNGRY", "CUDDLY"}}

	before := &schema.SchemaModel{Tables: []*schema.Table{table("Cat", intID())}}
	after := &schema.SchemaModel{
		Tables: []*schema.Table{table("Cat", intID(), enumCol("mood", "CatMood", schema.ArityRequired))},
		Enums:  []*schema.Enum{catMood},
	}

	p := plan(t, pg, before, after, empty)
	assert.Equal(t, []connector.StepKind{connector.CreateEnum, connector.AddColumn}, kinds(p))
	assert.Equal(t, []string{"ANGRY", "HUNGRY", "CUDDLY"}, p.Steps[0].Enum.Values)
	assert.Equal(t, PhasePrepare, p.Steps[0].Phase)
	assert.Equal(t, PhaseTables, p.Steps[1].Phase)
	assert.Equal(t, Safe, p.Destructiveness().Level)

	p = plan(t, pg, after, before)
	assert.Equal(t, []connector.StepKind{connector.DropColumn, connector.DropEnum}, kinds(p))
	assert.Equal(t, Warning, p.Destructiveness().Level)
	assert.Equal(t, "warning: dropping column Cat.mood loses its data", p.Steps[0].Summary())
}

func TestPlan_AlterEnum(t *testing.T) {
	current := &schema.SchemaModel{
		Tables: []*schema.Table{table("Cat", intID(), enumCol("mood", "Mood", schema.ArityNullable))},
		Enums:  []*schema.Enum{{Name: "Mood", Values: []string{"ANGRY", "HUNGRY"}}},
	}

	added := current.Clone()
	added.Enums[0].Values = append(added.Enums[0].Values, "CUDDLY")
	p := plan(t, connector.Postgres(), current, added)
	require.Equal(t, []connector.StepKind{connector.AlterEnum}, kinds(p))
	assert.Equal(t, Safe, p.Steps[0].Destructiveness.Level)
	require.Len(t, p.Steps[0].EnumUsers, 1)
	assert.Equal(t, "mood", p.Steps[0].EnumUsers[0].Column.Name)

	removed := current.Clone()
	removed.Enums[0].Values = []string{"ANGRY"}
	p = plan(t, connector.Postgres(), current, removed)
	require.Equal(t, []connector.StepKind{connector.AlterEnum}, kinds(p))
	assert.Equal(t, Warning, p.Steps[0].Destructiveness.Level)
	assert.Contains(t, p.Steps[0].Destructiveness.Reason, "HUNGRY")
}

func TestPlan_InlineEnumsBecomeColumnChanges(t *testing.T) {
	mysql := connector.MySQL()
	current := &schema.SchemaModel{
		Tables: []*schema.Table{table("Cat", intID(), enumCol("mood", "Mood", schema.ArityNullable))},
		Enums:  []*schema.Enum{{Name: "Mood", Values: []string{"ANGRY", "HUNGRY"}}},
	}

	added := current.Clone()
	added.Enums[0].Values = append(added.Enums[0].Values, "CUDDLY")
	p := plan(t, mysql, current, added)
	require.Equal(t, []connector.StepKind{connector.AlterColumn}, kinds(p))
	assert.Equal(t, Safe, p.Steps[0].Destructiveness.Level)
	require.Len(t, p.Steps[0].Enums, 1)
	assert.Equal(t, "Cat_mood", p.Steps[0].Enums[0].Name)
	assert.Equal(t, []string{"ANGRY", "HUNGRY", "CUDDLY"}, p.Steps[0].Enums[0].Values)

	removed := current.Clone()
	removed.Enums[0].Values = []string{"ANGRY"}
	p = plan(t, mysql, current, removed)
	require.Equal(t, []connector.StepKind{connector.AlterColumn}, kinds(p))
	assert.Equal(t, Warning, p.Steps[0].Destructiveness.Level)
}

func TestPlan_EnumsOnSQLiteAreUnexecutable(t *testing.T) {
	desired := &schema.SchemaModel{
		Tables: []*schema.Table{table("Cat", intID(), enumCol("mood", "Mood", schema.ArityNullable))},
		Enums:  []*schema.Enum{{Name: "Mood", Values: []string{"ANGRY"}}},
	}

	p := plan(t, connector.SQLite(), nil, desired)

	assert.Equal(t, Unexecutable, p.Destructiveness().Level)
	assert.Len(t, p.Unexecutable(), 2)
	err := p.CheckExecutable()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexecutableStep)
	var uerr *UnexecutableStepError
	require.ErrorAs(t, err, &uerr)
	assert.Len(t, uerr.Steps, 2)
}

func TestPlan_UndefinedEnumIsInvalidModel(t *testing.T) {
	desired := &schema.SchemaModel{Tables: []*schema.Table{table("Cat", intID(), enumCol("mood", "Missing", schema.ArityNullable))}}

	_, err := NewPlanner(connector.Postgres()).Plan(diff.Diff(nil, desired, connector.Postgres()), nil, desired)

	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrInvalidModel)
	assert.ErrorIs(t, err, ErrDanglingEnum)
	assert.NotErrorIs(t, err, ErrInternal)
	assert.ErrorContains(t, err, `"Cat"."mood"`)
}

func TestPlan_ListArity(t *testing.T) {
	current := &schema.SchemaModel{Tables: []*schema.Table{table("Post", intID(), col("tags", schema.FamilyString, schema.ArityNullable))}}
	desired := &schema.SchemaModel{Tables: []*schema.Table{table("Post", intID(), col("tags", schema.FamilyString, schema.ArityList))}}

	p := plan(t, connector.Postgres(), current, desired)
	require.Equal(t, []connector.StepKind{connector.DropColumn, connector.AddColumn}, kinds(p))
	assert.Equal(t, Warning, p.Steps[0].Destructiveness.Level)
	assert.Equal(t, Safe, p.Steps[1].Destructiveness.Level)
	assert.Equal(t, schema.ArityList, p.Steps[1].Column.Type.Arity)

	p = plan(t, connector.MySQL(), current, desired)
	require.Equal(t, []connector.StepKind{connector.DropColumn, connector.AddColumn}, kinds(p))
	assert.Equal(t, Unexecutable, p.Steps[1].Destructiveness.Level)
}

func TestPlan_CreateTablesWithCycle(t *testing.T) {
	a := table("A", intID(), col("bId", schema.FamilyInt, schema.ArityNullable))
	a.ForeignKeys = []*schema.ForeignKey{fk("A_bId_fkey", "bId", "B")}
	b := table("B", intID(), col("aId", schema.FamilyInt, schema.ArityNullable), col("parentId", schema.FamilyInt, schema.ArityNullable))
	b.ForeignKeys = []*schema.ForeignKey{fk("B_aId_fkey", "aId", "A"), fk("B_parentId_fkey", "parentId", "B")}
	c := table("C", intID(), col("aId", schema.FamilyInt, schema.ArityRequired))
	c.ForeignKeys = []*schema.ForeignKey{fk("C_aId_fkey", "aId", "A")}
	desired := &schema.SchemaModel{Tables: []*schema.Table{c, b, a}}

	p := plan(t, connector.Postgres(), nil, desired)

	assert.Equal(t, []connector.StepKind{
		connector.CreateTable, connector.CreateTable, connector.CreateTable,
		connector.AddForeignKey, connector.AddForeignKey, connector.AddForeignKey, connector.AddForeignKey,
	}, kinds(p))
	assert.Equal(t, []string{"A", "B", "C"}, []string{p.Steps[0].Table, p.Steps[1].Table, p.Steps[2].Table})
	for _, s := range p.Steps[:3] {
		assert.Empty(t, s.ForeignKeys)
	}
	for _, s := range p.Steps[3:] {
		assert.Equal(t, PhaseConstraints, s.Phase)
	}
}

func TestPlan_SQLiteInlinesForeignKeys(t *testing.T) {
	a := table("A", intID(), col("bId", schema.FamilyInt, schema.ArityNullable))
	a.ForeignKeys = []*schema.ForeignKey{fk("A_bId_fkey", "bId", "B")}
	b := table("B", intID())
	desired := &schema.SchemaModel{Tables: []*schema.Table{a, b}}

	p := plan(t, connector.SQLite(), nil, desired)

	require.Equal(t, []connector.StepKind{connector.CreateTable, connector.CreateTable}, kinds(p))
	assert.Equal(t, "B", p.Steps[0].Table)
	assert.Equal(t, "A", p.Steps[1].Table)
	assert.Len(t, p.Steps[1].ForeignKeys, 1)
}

func TestPlan_DropTablesInReverseDependencyOrder(t *testing.T) {
	user := table("User", intID())
	post := table("Post", intID(), col("authorId", schema.FamilyInt, schema.ArityRequired))
	post.ForeignKeys = []*schema.ForeignKey{fk("Post_authorId_fkey", "authorId", "User")}
	current := &schema.SchemaModel{Tables: []*schema.Table{user, post}}

	p := plan(t, connector.Postgres(), current, nil, WithTableStats(TableStats{"User": 0}))

	require.Equal(t, []connector.StepKind{connector.DropForeignKey, connector.DropTable, connector.DropTable}, kinds(p))
	assert.Equal(t, "Post", p.Steps[1].Table)
	assert.Equal(t, "User", p.Steps[2].Table)
	assert.Equal(t, Warning, p.Steps[1].Destructiveness.Level)
	assert.Equal(t, Safe, p.Steps[2].Destructiveness.Level)
	assert.Len(t, p.Warnings(), 1)
}

func TestPlan_ExternallyOwnedTablesAreIgnored(t *testing.T) {
	current := &schema.SchemaModel{Tables: []*schema.Table{
		table("spatial_ref_sys", col("srid", schema.FamilyInt, schema.ArityRequired)),
		table("Geometry_columns", col("f_table_name", schema.FamilyString, schema.ArityRequired)),
	}}

	p := plan(t, connector.Postgres(), current, &schema.SchemaModel{})

	assert.True(t, IsNoop(p))
}

func TestPlan_GeneratedUUIDDefaultsDoNotDrift(t *testing.T) {
	uuidCol := func(name string, def *schema.DefaultValue) *schema.Column {
		return &schema.Column{Name: name, Type: schema.ColumnType{Family: schema.FamilyString, Native: schema.NewNativeType("Uuid")},
			Default: def}
	}
	build := func(def *schema.DefaultValue, fkName string) *schema.SchemaModel {
		a := table("a", uuidCol("id", def))
		a.Columns[0].PrimaryKey = true
		b := table("b", uuidCol("id", def), uuidCol("a_id", nil))
		b.Columns[0].PrimaryKey = true
		b.ForeignKeys = []*schema.ForeignKey{{Name: fkName, Columns: []string{"a_id"}, ReferencedTable: "a",
			ReferencedColumns: []string{"id"}}}
		return &schema.SchemaModel{Tables: []*schema.Table{a, b}}
	}

	introspected := build(schema.DBGenerated("uuid_generate_v4()"), "aaa")
	declared := build(schema.DBGenerated("public.uuid_generate_v4()"), "b_a_id_fkey")

	assert.True(t, IsNoop(plan(t, connector.Postgres(), introspected, declared)))
}

func TestPlan_AddRequiredColumn(t *testing.T) {
	current := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID())}}
	desired := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID(), col("name", schema.FamilyString, schema.ArityRequired))}}

	p := plan(t, connector.Postgres(), current, desired)
	require.Equal(t, []connector.StepKind{connector.AddColumn}, kinds(p))
	assert.Equal(t, Unexecutable, p.Steps[0].Destructiveness.Level)

	p = plan(t, connector.Postgres(), current, desired, WithTableStats(TableStats{"User": 0}))
	assert.Equal(t, Safe, p.Steps[0].Destructiveness.Level)

	desired.Tables[0].Columns[1].Default = schema.Literal("anonymous")
	p = plan(t, connector.Postgres(), current, desired)
	assert.Equal(t, Safe, p.Steps[0].Destructiveness.Level)
}

func TestPlan_TypeChangeRecreatesIndexes(t *testing.T) {
	varchar := func(n int) *schema.Table {
		email := col("email", schema.FamilyString, schema.ArityRequired)
		email.Type.Native = schema.NewNativeType("VarChar", n)
		tb := table("User", intID(), email)
		tb.Indexes = []*schema.Index{{Name: "User_email_key", Columns: []string{"email"}, Unique: true}}
		return tb
	}
	narrow := &schema.SchemaModel{Tables: []*schema.Table{varchar(10)}}
	wide := &schema.SchemaModel{Tables: []*schema.Table{varchar(20)}}

	p := plan(t, connector.Postgres(), narrow, wide)
	require.Equal(t, []connector.StepKind{connector.DropIndex, connector.AlterColumn, connector.CreateIndex}, kinds(p))
	assert.Equal(t, Safe, p.Destructiveness().Level)
	assert.True(t, p.Steps[1].Changes.Has(diff.TypeChanged))

	p = plan(t, connector.Postgres(), wide, narrow)
	assert.Equal(t, Warning, p.Destructiveness().Level)
	assert.Contains(t, p.Steps[1].Destructiveness.Reason, "narrowing")
}

func TestPlan_SQLiteRedefinesAlteredTables(t *testing.T) {
	current := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID(), col("name", schema.FamilyString, schema.ArityRequired))}}
	desired := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID(), col("name", schema.FamilyString, schema.ArityNullable))}}
	desired.Tables[0].Indexes = []*schema.Index{{Name: "User_name_idx", Columns: []string{"name"}}}

	p := plan(t, connector.SQLite(), current, desired)

	require.Equal(t, []connector.StepKind{connector.RedefineTable, connector.CreateIndex}, kinds(p))
	assert.Equal(t, Safe, p.Steps[0].Destructiveness.Level)
	assert.Equal(t, schema.ArityRequired, current.Tables[0].Columns[1].Type.Arity)
}

func TestPlan_SQLiteAddsExpressionDefaultsByRedefining(t *testing.T) {
	current := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID())}}
	created := col("createdAt", schema.FamilyDateTime, schema.ArityRequired)
	created.Default = schema.Expression("now()")
	desired := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID(), created)}}

	p := plan(t, connector.SQLite(), current, desired)
	assert.Equal(t, []connector.StepKind{connector.RedefineTable}, kinds(p))

	p = plan(t, connector.Postgres(), current, desired)
	assert.Equal(t, []connector.StepKind{connector.AddColumn}, kinds(p))
}

func TestPlan_PrimaryKeyChangeRecreatesIncomingForeignKeys(t *testing.T) {
	build := func(pk string) *schema.SchemaModel {
		user := table("User", col("id", schema.FamilyInt, schema.ArityRequired), col("code", schema.FamilyInt, schema.ArityRequired))
		user.Column(pk).PrimaryKey = true
		post := table("Post", intID(), col("authorId", schema.FamilyInt, schema.ArityRequired))
		post.ForeignKeys = []*schema.ForeignKey{fk("Post_authorId_fkey", "authorId", "User")}
		return &schema.SchemaModel{Tables: []*schema.Table{user, post}}
	}

	p := plan(t, connector.Postgres(), build("id"), build("code"))

	require.Equal(t, []connector.StepKind{connector.DropForeignKey, connector.RedefineTable, connector.AddForeignKey}, kinds(p))
	assert.Equal(t, "Post", p.Steps[0].Table)
	assert.Equal(t, Warning, p.Steps[1].Destructiveness.Level)
	assert.Contains(t, p.Steps[1].Destructiveness.Reason, "primary key")
}

func TestPlan_DoesNotMutateInputs(t *testing.T) {
	current := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID())}}
	desired := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID(), col("name", schema.FamilyString, schema.ArityNullable))}}
	currentCopy, desiredCopy := current.Clone(), desired.Clone()

	d := diff.Diff(current, desired, connector.Postgres())
	_, err := NewPlanner(connector.Postgres()).Plan(d, current, desired)
	require.NoError(t, err)

	assert.Equal(t, currentCopy, current.Clone())
	assert.Equal(t, desiredCopy, desired.Clone())
}

func TestPlan_YAMLAndSummary(t *testing.T) {
	desired := &schema.SchemaModel{Tables: []*schema.Table{table("User", intID())}}
	p := plan(t, connector.Postgres(), nil, desired)

	assert.Equal(t, []string{"added table User"}, p.Summary())

	out, err := p.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "destructiveness: safe")
	assert.Contains(t, string(out), "kind: CreateTable")
	assert.Contains(t, string(out), "phase: tables")
	assert.Len(t, p.InPhase(PhaseTables), 1)
}

func TestTableGraph_Components(t *testing.T) {
	a := table("A")
	a.ForeignKeys = []*schema.ForeignKey{fk("x", "id", "B")}
	b := table("B")
	b.ForeignKeys = []*schema.ForeignKey{fk("y", "id", "A")}
	c := table("C")
	c.ForeignKeys = []*schema.ForeignKey{fk("z", "id", "C"), fk("w", "id", "D")}
	d := table("D")

	g := newTableGraph([]*schema.Table{d, c, b, a}, false)

	assert.Equal(t, [][]string{{"A", "B"}, {"D"}, {"C"}}, g.components())
	assert.Equal(t, []string{"A", "B", "D", "C"}, g.order())
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": true}, g.cyclic())
}

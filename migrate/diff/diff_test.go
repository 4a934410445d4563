package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

func column(name string, family schema.Family, arity schema.Arity, native *schema.NativeType) *schema.Column {
	return &schema.Column{Name: name, Type: schema.ColumnType{Family: family, Arity: arity, Native: native}}
}

func users() *schema.Table {
	id := column("id", schema.FamilyInt, schema.ArityRequired, nil)
	id.PrimaryKey = true
	id.Default = schema.Sequence()
	return &schema.Table{
		Name: "User",
		Columns: []*schema.Column{
			id,
			column("email", schema.FamilyString, schema.ArityRequired, nil),
			column("createdAt", schema.FamilyDateTime, schema.ArityRequired, nil),
		},
		Indexes: []*schema.Index{{Name: "User_email_key", Columns: []string{"email"}, Unique: true}},
	}
}

func posts() *schema.Table {
	id := column("id", schema.FamilyInt, schema.ArityRequired, nil)
	id.PrimaryKey = true
	return &schema.Table{
		Name: "Post",
		Columns: []*schema.Column{
			id,
			column("authorId", schema.FamilyInt, schema.ArityRequired, nil),
		},
		ForeignKeys: []*schema.ForeignKey{{
			Name: "Post_authorId_fkey", Columns: []string{"authorId"},
			ReferencedTable: "User", ReferencedColumns: []string{"id"},
		}},
	}
}

func model(tables ...*schema.Table) *schema.SchemaModel {
	return &schema.SchemaModel{Tables: tables}
}

func TestDiff_IdenticalModelsAreEmpty(t *testing.T) {
	d := Diff(model(users(), posts()), model(users(), posts()), connector.Postgres())
	assert.True(t, d.IsEmpty())
}

func TestDiff_NilModels(t *testing.T) {
	d := Diff(nil, model(users()), connector.Postgres())
	require.Len(t, d.CreatedTables, 1)
	assert.Equal(t, "User", d.CreatedTables[0].Name)

	assert.True(t, Diff(nil, nil, connector.Postgres()).IsEmpty())
}

func TestDiff_CreatedAndDroppedTablesSorted(t *testing.T) {
	d := Diff(model(&schema.Table{Name: "Zoo"}, &schema.Table{Name: "Ant"}),
		model(&schema.Table{Name: "Cat"}, &schema.Table{Name: "Bee"}), connector.Postgres())

	names := func(ts []*schema.Table) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Bee", "Cat"}, names(d.CreatedTables))
	assert.Equal(t, []string{"Ant", "Zoo"}, names(d.DroppedTables))
}

func TestDiff_FoldsTableNames(t *testing.T) {
	prev := model(&schema.Table{Name: "user"})
	next := model(&schema.Table{Name: "User"})

	assert.True(t, Diff(prev, next, connector.MySQL()).IsEmpty())

	d := Diff(prev, next, connector.Postgres())
	assert.Len(t, d.CreatedTables, 1)
	assert.Len(t, d.DroppedTables, 1)
}

func TestDiff_ColumnChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *schema.Column)
		want   ColumnChanges
	}{
		{"nullable", func(c *schema.Column) { c.Type.Arity = schema.ArityNullable }, NullabilityChanged},
		{"list", func(c *schema.Column) { c.Type.Arity = schema.ArityList }, ArityChanged},
		{"family", func(c *schema.Column) { c.Type.Family = schema.FamilyInt }, TypeChanged},
		{"native", func(c *schema.Column) { c.Type.Native = schema.NewNativeType("VarChar", 10) }, TypeChanged},
		{"equivalent native", func(c *schema.Column) { c.Type.Native = schema.NewNativeType("Text") }, 0},
		{"default", func(c *schema.Column) { c.Default = schema.Literal("a@b.c") }, DefaultChanged},
		{"primary key", func(c *schema.Column) { c.PrimaryKey = true }, PrimaryKeyChanged},
		{"type and nullability", func(c *schema.Column) {
			c.Type.Native = schema.NewNativeType("Uuid")
			c.Type.Arity = schema.ArityNullable
		}, TypeChanged | NullabilityChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := users()
			tt.mutate(next.Column("email"))

			d := Diff(model(users()), model(next), connector.Postgres())
			if tt.want == 0 {
				assert.True(t, d.IsEmpty())
				return
			}
			require.Len(t, d.TableChanges, 1)
			require.Len(t, d.TableChanges[0].ColumnChanges, 1)
			cd := d.TableChanges[0].ColumnChanges[0]
			assert.Equal(t, "email", cd.Name())
			assert.Equal(t, tt.want, cd.Changes)
		})
	}
}

func TestDiff_DoesNotMutateInputs(t *testing.T) {
	prev, next := model(users()), model(users(), posts())
	next.Tables[0].Columns[1].Type.Arity = schema.ArityNullable

	before := prev.Clone()
	Diff(prev, next, connector.Postgres())
	assert.Equal(t, before, prev.Clone())
}

func TestDiff_AddedAndDroppedColumns(t *testing.T) {
	next := users()
	next.Columns = append(next.Columns[:2], column("name", schema.FamilyString, schema.ArityNullable, nil))

	d := Diff(model(users()), model(next), connector.Postgres())

	require.Len(t, d.TableChanges, 1)
	td := d.TableChanges[0]
	assert.Equal(t, "User", td.Name())
	require.Len(t, td.CreatedColumns, 1)
	assert.Equal(t, "name", td.CreatedColumns[0].Name)
	require.Len(t, td.DroppedColumns, 1)
	assert.Equal(t, "createdAt", td.DroppedColumns[0].Name)
	assert.False(t, td.PrimaryKeyChanged())
}

func TestDiff_IndexesIgnoreNames(t *testing.T) {
	next := users()
	next.Indexes[0].Name = "email_unique"

	assert.True(t, Diff(model(users()), model(next), connector.Postgres()).IsEmpty())

	next.Indexes[0].Unique = false
	d := Diff(model(users()), model(next), connector.Postgres())
	require.Len(t, d.TableChanges, 1)
	assert.Len(t, d.TableChanges[0].CreatedIndexes, 1)
	assert.Len(t, d.TableChanges[0].DroppedIndexes, 1)
}

func TestDiff_DuplicateIndexesPairAsMultiset(t *testing.T) {
	prev := users()
	prev.Indexes = append(prev.Indexes, &schema.Index{Name: "dup", Columns: []string{"email"}, Unique: true})

	d := Diff(model(prev), model(users()), connector.Postgres())

	require.Len(t, d.TableChanges, 1)
	require.Len(t, d.TableChanges[0].DroppedIndexes, 1)
	assert.Equal(t, "dup", d.TableChanges[0].DroppedIndexes[0].Name)
	assert.Empty(t, d.TableChanges[0].CreatedIndexes)
}

func TestDiff_ForeignKeys(t *testing.T) {
	renamed := posts()
	renamed.ForeignKeys[0].Name = "aaa"
	assert.True(t, Diff(model(users(), posts()), model(users(), renamed), connector.Postgres()).IsEmpty())

	cascade := posts()
	cascade.ForeignKeys[0].OnDelete = schema.Cascade
	d := Diff(model(users(), posts()), model(users(), cascade), connector.Postgres())
	require.Len(t, d.TableChanges, 1)
	assert.Len(t, d.TableChanges[0].CreatedForeignKeys, 1)
	assert.Len(t, d.TableChanges[0].DroppedForeignKeys, 1)
}

func TestDiff_Enums(t *testing.T) {
	prev := &schema.SchemaModel{Enums: []*schema.Enum{
		{Name: "Mood", Values: []string{"ANGRY", "HUNGRY"}},
		{Name: "Old", Values: []string{"X"}},
		{Name: "Order", Values: []string{"A", "B"}},
	}}
	next := &schema.SchemaModel{Enums: []*schema.Enum{
		{Name: "Mood", Values: []string{"ANGRY", "CUDDLY"}},
		{Name: "New", Values: []string{"Y"}},
		{Name: "Order", Values: []string{"B", "A"}},
	}}

	d := Diff(prev, next, connector.Postgres())

	require.Len(t, d.CreatedEnums, 1)
	assert.Equal(t, "New", d.CreatedEnums[0].Name)
	require.Len(t, d.DroppedEnums, 1)
	assert.Equal(t, "Old", d.DroppedEnums[0].Name)

	require.Len(t, d.EnumChanges, 2)
	mood, order := d.EnumChanges[0], d.EnumChanges[1]
	assert.Equal(t, "Mood", mood.Name())
	assert.Equal(t, []string{"CUDDLY"}, mood.AddedValues)
	assert.Equal(t, []string{"HUNGRY"}, mood.RemovedValues)
	assert.False(t, mood.OrderChanged)

	assert.Equal(t, "Order", order.Name())
	assert.Empty(t, order.AddedValues)
	assert.Empty(t, order.RemovedValues)
	assert.True(t, order.OrderChanged)
}

func TestDefaultsMatch(t *testing.T) {
	tests := []struct {
		name   string
		family schema.Family
		a, b   *schema.DefaultValue
		want   bool
	}{
		{"both none", schema.FamilyInt, nil, nil, true},
		{"one none", schema.FamilyInt, schema.Literal("1"), nil, false},
		{"numeric spelling", schema.FamilyDecimal, schema.Literal("1.50"), schema.Literal("1.5"), true},
		{"numeric differs", schema.FamilyInt, schema.Literal("1"), schema.Literal("2"), false},
		{"json spacing", schema.FamilyJSON, schema.Literal(`{"a": [1, 2]}`), schema.Literal(`{"a":[1,2]}`), true},
		{"boolean spelling", schema.FamilyBoolean, schema.Literal("true"), schema.Literal("1"), true},
		{"enum quotes", schema.FamilyEnum, schema.Literal("'ANGRY'"), schema.Literal("ANGRY"), true},
		{"string exact", schema.FamilyString, schema.Literal("a"), schema.Literal("A"), false},
		{"expression case", schema.FamilyDateTime, schema.Expression("now()"), schema.Expression("NOW()"), true},
		{"kind differs", schema.FamilyString, schema.Literal("x"), schema.DBGenerated("x"), false},
		{"sequence", schema.FamilyInt, schema.Sequence(), schema.Sequence(), true},
		{"dbgenerated exact", schema.FamilyString, schema.DBGenerated("gen_random_uuid()"), schema.DBGenerated("gen_random_uuid()"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := &schema.Column{Name: "c", Type: schema.ColumnType{Family: tt.family}, Default: tt.a}
			next := &schema.Column{Name: "c", Type: schema.ColumnType{Family: tt.family}, Default: tt.b}
			assert.Equal(t, tt.want, defaultsMatch(prev, next))
		})
	}
}

func TestColumnChangesReasons(t *testing.T) {
	cc := TypeChanged | DefaultChanged
	assert.Equal(t, []string{"type", "default"}, cc.Reasons())
	assert.Equal(t, "type, default", cc.String())
	assert.True(t, cc.Has(DefaultChanged))
	assert.False(t, cc.OnlyDefault())
	assert.True(t, DefaultChanged.OnlyDefault())
}

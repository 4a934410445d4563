package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catModel() *SchemaModel {
	return &SchemaModel{
		Tables: []*Table{
			{
				Name: "Cat",
				Columns: []*Column{
					{Name: "id", Type: ColumnType{Family: FamilyString}, PrimaryKey: true},
					{Name: "ownerId", Type: ColumnType{Family: FamilyInt, Arity: ArityNullable}},
					{Name: "mood", Type: ColumnType{Family: FamilyEnum, Enum: "CatMood"}},
				},
				Indexes: []*Index{{Name: "Cat_mood_idx", Columns: []string{"mood"}}},
				ForeignKeys: []*ForeignKey{{
					Name:              "Cat_ownerId_fkey",
					Columns:           []string{"ownerId"},
					ReferencedTable:   "Owner",
					ReferencedColumns: []string{"id"},
				}},
			},
			{
				Name:    "Owner",
				Columns: []*Column{{Name: "id", Type: ColumnType{Family: FamilyInt}, PrimaryKey: true, Default: Sequence()}},
			},
		},
		Enums: []*Enum{{Name: "CatMood", Values: []string{"ANGRY", "HUNGRY", "CUDDLY"}}},
	}
}

func TestValidate_ValidModel(t *testing.T) {
	require.NoError(t, catModel().Validate())
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *SchemaModel)
		table  string
		column string
	}{
		{
			name:   "undefined enum",
			mutate: func(m *SchemaModel) { m.Enums = nil },
			table:  "Cat",
			column: "mood",
		},
		{
			name:   "index on missing column",
			mutate: func(m *SchemaModel) { m.Tables[0].Indexes[0].Columns = []string{"color"} },
			table:  "Cat",
			column: "color",
		},
		{
			name:   "foreign key to missing table",
			mutate: func(m *SchemaModel) { m.Tables = m.Tables[:1] },
			table:  "Cat",
		},
		{
			name:   "foreign key to missing column",
			mutate: func(m *SchemaModel) { m.Tables[0].ForeignKeys[0].ReferencedColumns = []string{"uuid"} },
			table:  "Cat",
		},
		{
			name:   "duplicate table",
			mutate: func(m *SchemaModel) { m.Tables = append(m.Tables, m.Tables[1].Clone()) },
			table:  "Owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := catModel()
			tt.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidModel)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.table, verr.Table)
			if tt.column != "" {
				assert.Equal(t, tt.column, verr.Column)
			}
		})
	}
}

func TestValidate_CaseInsensitiveDuplicates(t *testing.T) {
	m := &SchemaModel{Tables: []*Table{
		{Name: "user", Columns: []*Column{{Name: "id", Type: ColumnType{Family: FamilyInt}}}},
		{Name: "User", Columns: []*Column{{Name: "id", Type: ColumnType{Family: FamilyInt}}}},
	}}

	require.NoError(t, m.Validate())
	assert.ErrorIs(t, m.ValidateWith(ValidateOptions{CaseInsensitiveNames: true}), ErrInvalidModel)
}

func TestValidate_ExternalReferences(t *testing.T) {
	m := catModel()
	m.Tables = m.Tables[:1]

	require.ErrorIs(t, m.Validate(), ErrInvalidModel)
	external := func(table string) bool { return table == "Owner" }
	require.NoError(t, m.ValidateWith(ValidateOptions{External: external}))
}

func TestClone_IsDeep(t *testing.T) {
	m := catModel()
	cp := m.Clone()

	cp.Tables[0].Columns[0].Name = "changed"
	cp.Tables[0].Indexes[0].Columns[0] = "changed"
	cp.Enums[0].Values[0] = "changed"

	assert.Equal(t, "id", m.Tables[0].Columns[0].Name)
	assert.Equal(t, "mood", m.Tables[0].Indexes[0].Columns[0])
	assert.Equal(t, "ANGRY", m.Enums[0].Values[0])
}

func TestTraversal(t *testing.T) {
	m := catModel()

	require.NotNil(t, m.Table("Cat"))
	assert.Nil(t, m.Table("cat"))
	assert.NotNil(t, m.TableFold("cat"))
	assert.Equal(t, []string{"id"}, m.Table("Cat").PrimaryKey())
	assert.Equal(t, []string{"Owner"}, m.Table("Cat").ReferencedTables())
	assert.Equal(t, []ColumnRef{{Table: "Cat", Column: "mood"}}, m.EnumUsers("CatMood"))
}

func TestColumnTypeString(t *testing.T) {
	ct := ColumnType{Family: FamilyString, Arity: ArityNullable, Native: NewNativeType("VarChar", 200)}
	assert.Equal(t, "String? @VarChar(200)", ct.String())

	list := ColumnType{Family: FamilyEnum, Enum: "Status", Arity: ArityList}
	assert.Equal(t, "Status[]", list.String())
}

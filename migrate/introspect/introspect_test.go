package introspect

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/nativetypes"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

func TestParseDefault(t *testing.T) {
	tests := []struct {
		expr string
		want *schema.DefaultValue
	}{
		{"", nil},
		{"NULL", nil},
		{"NULL::character varying", nil},
		{"nextval('\"User_id_seq\"'::regclass)", schema.Sequence()},
		{"'hello'::text", schema.Literal("hello")},
		{"'it''s'", schema.Literal("it's")},
		{"'{}'::jsonb", schema.Literal("{}")},
		{"'HAPPY'::\"Mood\"", schema.Literal("HAPPY")},
		{"42", schema.Literal("42")},
		{"-1.5", schema.Literal("-1.5")},
		{"(-1)::integer", schema.Literal("-1")},
		{"0::bigint", schema.Literal("0")},
		{"TRUE", schema.Literal("true")},
		{"false", schema.Literal("false")},
		{"CURRENT_TIMESTAMP", schema.DBGenerated("CURRENT_TIMESTAMP")},
		{"gen_random_uuid()", schema.DBGenerated("gen_random_uuid()")},
		{"(datetime('now'))", schema.DBGenerated("(datetime('now'))")},
		{"'a' || 'b'", schema.DBGenerated("'a' || 'b'")},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDefault(tt.expr))
		})
	}
}

func TestParseSQLServerDefault(t *testing.T) {
	assert.Equal(t, schema.Literal("0"), parseSQLServerDefault("((0))"))
	assert.Equal(t, schema.Literal("abc"), parseSQLServerDefault("(N'abc')"))
	assert.Equal(t, schema.DBGenerated("getdate()"), parseSQLServerDefault("(getdate())"))
	assert.Equal(t, schema.DBGenerated("newid()"), parseSQLServerDefault("(newid())"))
}

func TestParseDataType(t *testing.T) {
	dec := parseDataType("decimal(10,2)")
	assert.Equal(t, "decimal", dec.Name)
	require.NotNil(t, dec.Precision)
	require.NotNil(t, dec.Scale)
	assert.Equal(t, 10, *dec.Precision)
	assert.Equal(t, 2, *dec.Scale)

	unsigned := parseDataType("int(11) unsigned")
	assert.Equal(t, "int unsigned", unsigned.Name)

	max := parseDataType("NVARCHAR(max)")
	assert.Equal(t, "nvarchar", max.Name)
	require.NotNil(t, max.Length)
	assert.Equal(t, schema.MaxLength, *max.Length)

	plain := parseDataType("TEXT")
	assert.Equal(t, nativetypes.DBType{Name: "text"}, plain)
}

func TestPostgresType(t *testing.T) {
	varchar := postgresType("varchar", "character varying(20)[]")
	require.NotNil(t, varchar.Length)
	assert.Equal(t, 20, *varchar.Length)

	ts := postgresType("timestamp", "timestamp(3) without time zone")
	require.NotNil(t, ts.TimePrecision)
	assert.Equal(t, 3, *ts.TimePrecision)
	assert.Nil(t, ts.Length)

	num := postgresType("numeric", "numeric(65,30)")
	assert.Equal(t, 65, *num.Precision)
	assert.Equal(t, 30, *num.Scale)

	assert.Equal(t, nativetypes.DBType{Name: "text"}, postgresType("text", "text"))
}

func TestMySQLEnumValues(t *testing.T) {
	values, ok := mysqlEnumValues("enum('HAPPY','SAD','it''s')")
	require.True(t, ok)
	assert.Equal(t, []string{"HAPPY", "SAD", "it's"}, values)

	_, ok = mysqlEnumValues("varchar(191)")
	assert.False(t, ok)
}

func TestMySQLDefault(t *testing.T) {
	assert.Equal(t, "'draft'", mysqlDefault("draft", ""))
	assert.Equal(t, "0", mysqlDefault("0", ""))
	assert.Equal(t, "CURRENT_TIMESTAMP(3)", mysqlDefault("CURRENT_TIMESTAMP(3)", "DEFAULT_GENERATED"))
	assert.Equal(t, "(uuid())", mysqlDefault("(uuid())", "DEFAULT_GENERATED"))
}

func TestWithoutForeignKeyIndexes(t *testing.T) {
	fks := []ForeignKey{{Name: "Post_authorId_fkey", Columns: []string{"authorId"}}}
	indexes := []Index{
		{Name: "Post_authorId_fkey", Columns: []string{"authorId"}},
		{Name: "Post_title_idx", Columns: []string{"title"}},
		{Name: "Post_authorId_key", Columns: []string{"authorId"}, IsUnique: true},
	}

	got := withoutForeignKeyIndexes(indexes, fks)
	require.Len(t, got, 2)
	assert.Equal(t, "Post_title_idx", got[0].Name)
	assert.Equal(t, "Post_authorId_key", got[1].Name)
}

func TestConstraintNames(t *testing.T) {
	ddl := `CREATE TABLE "Post" (
    "id" INTEGER NOT NULL PRIMARY KEY,
    "authorId" INTEGER NOT NULL,
    CONSTRAINT "Post_authorId_fkey" FOREIGN KEY ("authorId") REFERENCES "User" ("id"),
    FOREIGN KEY ("editorId") REFERENCES "User" ("id")
)`
	assert.Equal(t, []string{"Post_authorId_fkey", ""}, constraintNames(ddl))
}

func TestBuild(t *testing.T) {
	def := "'draft'::text"
	raw := &DatabaseSchema{
		Enums: []Enum{{Name: "Mood", Values: []string{"HAPPY", "SAD"}}},
		Tables: []Table{
			{
				Name:       "Post",
				PrimaryKey: []string{"id"},
				Columns: []Column{
					{Name: "id", Type: nativetypes.DBType{Name: "int4"}, AutoIncrement: true},
					{Name: "status", Type: nativetypes.DBType{Name: "text"}, Default: &def},
					{Name: "tags", Type: nativetypes.DBType{Name: "text"}, Array: true},
					{Name: "mood", Enum: "Mood", Nullable: true},
					{Name: "shape", Type: nativetypes.DBType{Name: "geometry"}, Raw: "geometry(Point,4326)", Nullable: true},
				},
				ForeignKeys: []ForeignKey{{Name: "Post_authorId_fkey", Columns: []string{"authorId"},
					ReferencedTable: "User", ReferencedColumns: []string{"id"}, OnDelete: "c", OnUpdate: "a"}},
			},
			{Name: "spatial_ref_sys"},
		},
	}

	model := Build(raw, connector.Postgres())
	require.Len(t, model.Tables, 1, "externally-owned tables are hidden")
	require.Len(t, model.Enums, 1)

	post := model.Tables[0]
	id := post.Column("id")
	assert.True(t, id.PrimaryKey)
	assert.Equal(t, schema.FamilyInt, id.Type.Family)
	assert.Equal(t, schema.NewNativeType("Integer"), id.Type.Native)
	assert.Equal(t, schema.Sequence(), id.Default)

	status := post.Column("status")
	assert.Equal(t, schema.ArityRequired, status.Type.Arity)
	assert.Equal(t, schema.Literal("draft"), status.Default)

	assert.Equal(t, schema.ArityList, post.Column("tags").Type.Arity)

	mood := post.Column("mood")
	assert.Equal(t, schema.FamilyEnum, mood.Type.Family)
	assert.Equal(t, "Mood", mood.Type.Enum)
	assert.Equal(t, schema.ArityNullable, mood.Type.Arity)

	shape := post.Column("shape")
	assert.Equal(t, schema.FamilyUnsupported, shape.Type.Family)
	assert.Equal(t, "geometry(Point,4326)", shape.Type.Raw)

	require.Len(t, post.ForeignKeys, 1)
	assert.Equal(t, schema.Cascade, post.ForeignKeys[0].OnDelete)
	assert.Equal(t, schema.NoAction, post.ForeignKeys[0].OnUpdate)
}

func TestBuild_MySQLBooleans(t *testing.T) {
	boolean := schema.FamilyBoolean
	raw := &DatabaseSchema{Tables: []Table{{
		Name: "Flag",
		Columns: []Column{
			{Name: "on", Type: parseDataType("tinyint(1)"), Family: &boolean},
			{Name: "level", Type: parseDataType("tinyint(4)")},
		},
	}}}

	model := Build(raw, connector.MySQL())
	assert.Equal(t, schema.FamilyBoolean, model.Tables[0].Column("on").Type.Family)
	assert.Equal(t, schema.FamilyInt, model.Tables[0].Column("level").Type.Family)
}

func TestNewIntrospector_UnsupportedProvider(t *testing.T) {
	_, err := NewIntrospector(nil, connector.NewDescriptor(connector.Descriptor{Name: "oracle"}))
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestSQLiteIntrospector(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ddl := []string{
		`CREATE TABLE "User" (
			"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			"email" TEXT NOT NULL,
			"name" TEXT,
			"active" BOOLEAN NOT NULL DEFAULT true,
			"createdAt" DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX "User_email_key" ON "User"("email")`,
		`CREATE TABLE "Post" (
			"id" INTEGER NOT NULL PRIMARY KEY,
			"authorId" INTEGER NOT NULL,
			"title" TEXT NOT NULL DEFAULT 'untitled',
			CONSTRAINT "Post_authorId_fkey" FOREIGN KEY ("authorId") REFERENCES "User" ("id") ON DELETE CASCADE ON UPDATE CASCADE
		)`,
		`CREATE INDEX "Post_authorId_idx" ON "Post"("authorId")`,
	}
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	in, err := NewIntrospector(db, connector.SQLite())
	require.NoError(t, err)
	model, err := in.Introspect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Post", "User"}, model.TableNames())

	user := model.Table("User")
	require.NotNil(t, user)
	assert.Equal(t, []string{"id"}, user.PrimaryKey())
	assert.Equal(t, schema.Sequence(), user.Column("id").Default)
	assert.Equal(t, schema.FamilyString, user.Column("email").Type.Family)
	assert.Equal(t, schema.ArityRequired, user.Column("email").Type.Arity)
	assert.Equal(t, schema.ArityNullable, user.Column("name").Type.Arity)
	assert.Equal(t, schema.FamilyBoolean, user.Column("active").Type.Family)
	assert.Equal(t, schema.Literal("true"), user.Column("active").Default)
	assert.Equal(t, schema.FamilyDateTime, user.Column("createdAt").Type.Family)
	assert.Equal(t, schema.DBGenerated("CURRENT_TIMESTAMP"), user.Column("createdAt").Default)
	require.Len(t, user.Indexes, 1)
	assert.Equal(t, "User_email_key", user.Indexes[0].Name)
	assert.True(t, user.Indexes[0].Unique)

	post := model.Table("Post")
	require.NotNil(t, post)
	assert.Nil(t, post.Column("id").Default, "a rowid alias without AUTOINCREMENT has no default")
	assert.Equal(t, schema.Literal("untitled"), post.Column("title").Default)
	require.Len(t, post.Indexes, 1)
	assert.Equal(t, []string{"authorId"}, post.Indexes[0].Columns)
	require.Len(t, post.ForeignKeys, 1)
	fk := post.ForeignKeys[0]
	assert.Equal(t, "Post_authorId_fkey", fk.Name)
	assert.Equal(t, "User", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, schema.Cascade, fk.OnDelete)
	assert.Equal(t, schema.Cascade, fk.OnUpdate)
}

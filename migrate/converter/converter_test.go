package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/nativetypes"
	"github.com/satishbabariya/schema-engine/migrate/schema"
	"github.com/satishbabariya/schema-engine/psl"
)

const blog = `
datasource db {
  provider = "postgresql"
  url      = "postgres://localhost/blog"
}

model User {
  id        Int      @id @default(autoincrement())
  email     String   @unique @db.VarChar(255)
  name      String?  @map("display_name")
  role      Role     @default(ADMIN)
  token     String   @default(uuid())
  createdAt DateTime @default(now())
  posts     Post[]

  @@map("users")
}

model Post {
  id       Int    @id @default(autoincrement())
  title    String @default("untitled")
  authorId Int
  author   User   @relation(fields: [authorId], references: [id], onDelete: Cascade)
  editorId Int?
  editor   User?  @relation("edits", fields: [editorId], references: [id], map: "post_editor")

  @@index([title])
  @@unique([authorId, title], map: "one_title_per_author")
}

enum Role {
  USER
  ADMIN @map("admin")
}
`

func build(t *testing.T, src string) *schema.SchemaModel {
	t.Helper()
	ast, err := psl.ParseString("schema.prisma", src)
	require.NoError(t, err)
	conn, err := Connector(ast)
	require.NoError(t, err)
	model, err := Build(ast, conn)
	require.NoError(t, err)
	return model
}

func TestBuild_Tables(t *testing.T) {
	model := build(t, blog)
	require.Len(t, model.Tables, 2)

	users := model.Table("users")
	require.NotNil(t, users)
	names := make([]string, len(users.Columns))
	for i, c := range users.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "email", "display_name", "role", "token", "createdAt"}, names)

	id := users.Column("id")
	assert.True(t, id.PrimaryKey)
	assert.Equal(t, schema.Sequence(), id.Default)

	email := users.Column("email")
	assert.Equal(t, schema.NewNativeType("VarChar", 255), email.Type.Native)
	require.Len(t, users.Indexes, 1)
	assert.Equal(t, &schema.Index{Name: "users_email_key", Columns: []string{"email"}, Unique: true}, users.Indexes[0])

	assert.Equal(t, schema.ArityNullable, users.Column("display_name").Type.Arity)
	assert.Equal(t, schema.FamilyEnum, users.Column("role").Type.Family)
	assert.Equal(t, "Role", users.Column("role").Type.Enum)
	assert.Equal(t, schema.Literal("admin"), users.Column("role").Default)
	assert.Nil(t, users.Column("token").Default)
	assert.Equal(t, schema.Expression("now()"), users.Column("createdAt").Default)
}

func TestBuild_RelationsAndIndexes(t *testing.T) {
	post := build(t, blog).Table("Post")
	require.NotNil(t, post)
	assert.Nil(t, post.Column("author"))
	assert.Equal(t, schema.Literal("untitled"), post.Column("title").Default)

	require.Len(t, post.ForeignKeys, 2)
	assert.Equal(t, &schema.ForeignKey{
		Name:              "Post_authorId_fkey",
		Columns:           []string{"authorId"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
		OnDelete:          schema.Cascade,
		OnUpdate:          schema.NoAction,
	}, post.ForeignKeys[0])
	assert.Equal(t, "post_editor", post.ForeignKeys[1].Name)
	assert.Equal(t, schema.NoAction, post.ForeignKeys[1].OnDelete)

	require.Len(t, post.Indexes, 2)
	assert.Equal(t, "Post_title_idx", post.Indexes[0].Name)
	assert.False(t, post.Indexes[0].Unique)
	assert.Equal(t, "one_title_per_author", post.Indexes[1].Name)
	assert.Equal(t, []string{"authorId", "title"}, post.Indexes[1].Columns)
}

func TestBuild_Enums(t *testing.T) {
	model := build(t, blog)
	require.Len(t, model.Enums, 1)
	assert.Equal(t, &schema.Enum{Name: "Role", Values: []string{"USER", "admin"}}, model.Enums[0])
}

func TestBuild_CompoundID(t *testing.T) {
	model := build(t, `
datasource db {
  provider = "sqlite"
  url      = "file:dev.db"
}

model Membership {
  userId Int
  teamId Int
  note   Unsupported("blob")?

  @@id([userId, teamId])
}
`)
	m := model.Table("Membership")
	assert.Equal(t, []string{"userId", "teamId"}, m.PrimaryKey())
	assert.Equal(t, schema.FamilyUnsupported, m.Column("note").Type.Family)
	assert.Equal(t, "blob", m.Column("note").Type.Raw)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `model A {
  id Int @id
  x  Strnig
}`},
		{"unknown enum value", `model A {
  id   Int  @id
  role Role @default(OWNER)
}
enum Role {
  USER
}`},
		{"unknown index field", `model A {
  id Int @id
  @@index([missing])
}`},
		{"unknown default function", `model A {
  id Int @id @default(sequence())
}`},
	}
	conn := connector.Postgres()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ast, err := psl.ParseString("schema.prisma", tt.body)
			require.NoError(t, err)
			_, err = Build(ast, conn)
			assert.Error(t, err)
		})
	}
}

func TestBuild_InvalidNativeType(t *testing.T) {
	ast, err := psl.ParseString("schema.prisma", `model A {
  id   Int    @id
  name String @db.Integer
}`)
	require.NoError(t, err)
	_, err = Build(ast, connector.Postgres())
	require.ErrorIs(t, err, nativetypes.ErrUnsupportedNativeType)
	assert.Contains(t, err.Error(), `"A"."name"`)
}

func TestBuild_ValidatesModel(t *testing.T) {
	ast, err := psl.ParseString("schema.prisma", `model A {
  id Int? @id
}`)
	require.NoError(t, err)
	_, err = Build(ast, connector.SQLite())
	assert.ErrorIs(t, err, schema.ErrInvalidModel)
}

func TestConnector_MissingDatasource(t *testing.T) {
	ast, err := psl.ParseString("schema.prisma", `model A {
  id Int @id
}`)
	require.NoError(t, err)
	_, err = Connector(ast)
	assert.ErrorIs(t, err, psl.ErrMissingDatasource)
}

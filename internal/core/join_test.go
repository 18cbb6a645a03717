package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_Inner(t *testing.T) {
	q := sqliteQuery().From("users").Join("contacts", "users.id", "=", "contacts.user_id")

	assert.Equal(t, `select * from "users" inner join "contacts" on "users"."id" = "contacts"."user_id"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestJoin_OperatorOmitted(t *testing.T) {
	q := sqliteQuery().From("users").Join("contacts", "users.id", "contacts.user_id")

	assert.Equal(t, `select * from "users" inner join "contacts" on "users"."id" = "contacts"."user_id"`, q.ToSQL())
}

func TestJoin_LeftAndRightWithAlias(t *testing.T) {
	q := sqliteQuery().From("messages as m").
		LeftJoin("users as u", "m.user_id", "=", "u.id").
		RightJoin("attachments as a", "a.message_id", "m.id")

	assert.Equal(t,
		`select * from "messages" as "m" left join "users" as "u" on "m"."user_id" = "u"."id" `+
			`right join "attachments" as "a" on "a"."message_id" = "m"."id"`,
		q.ToSQL())
}

func TestJoin_Closure(t *testing.T) {
	q := sqliteQuery().From("users").Join("contacts", func(j *JoinClause) {
		j.On("users.id", "contacts.user_id").OrOn("users.email", "=", "contacts.email")
		j.Where("contacts.active", true)
	}).Where("users.age", ">", 18)

	assert.Equal(t,
		`select * from "users" inner join "contacts" on "users"."id" = "contacts"."user_id" `+
			`or "users"."email" = "contacts"."email" and "contacts"."active" = ? where "users"."age" > ?`,
		q.ToSQL())
	assert.Equal(t, []interface{}{true, 18}, q.GetBindings())
	assert.Equal(t, []interface{}{true}, q.GetRawBindings()[BindingJoin])
}

func TestJoin_NestedOnGroup(t *testing.T) {
	q := sqliteQuery().From("users").LeftJoin("posts", func(j *JoinClause) {
		j.On("users.id", "posts.user_id").On(func(n *JoinClause) {
			n.On("posts.editor_id", "users.id").OrWhere("posts.public", true)
		})
	})

	assert.Equal(t,
		`select * from "users" left join "posts" on "users"."id" = "posts"."user_id" `+
			`and ("posts"."editor_id" = "users"."id" or "posts"."public" = ?)`,
		q.ToSQL())
	assert.Equal(t, []interface{}{true}, q.GetBindings())
}

func TestJoin_Where(t *testing.T) {
	q := sqliteQuery().From("users").
		JoinWhere("contacts", "contacts.kind", "=", "primary").
		LeftJoinWhere("phones", "phones.verified", true).
		RightJoinWhere("emails", "emails.kind", "work")

	assert.Equal(t,
		`select * from "users" inner join "contacts" on "contacts"."kind" = ? `+
			`left join "phones" on "phones"."verified" = ? right join "emails" on "emails"."kind" = ?`,
		q.ToSQL())
	assert.Equal(t, []interface{}{"primary", true, "work"}, q.GetBindings())
}

func TestJoin_Cross(t *testing.T) {
	q := sqliteQuery().From("sizes").CrossJoin("colors")
	assert.Equal(t, `select * from "sizes" cross join "colors"`, q.ToSQL())

	q = sqliteQuery().From("sizes").CrossJoin("colors", "sizes.kind", "colors.kind")
	assert.Equal(t, `select * from "sizes" cross join "colors" on "sizes"."kind" = "colors"."kind"`, q.ToSQL())
}

func TestJoin_Sub(t *testing.T) {
	q := sqliteQuery().From("users").JoinSub(func(s *Builder) {
		s.Select("user_id", Raw("max(created_at) as last")).
			From("posts").
			Where("published", true).
			GroupBy("user_id")
	}, "latest", "users.id", "=", "latest.user_id").Where("users.active", 1)

	assert.Equal(t,
		`select * from "users" inner join (select "user_id", max(created_at) as last from "posts" `+
			`where "published" = ? group by "user_id") as "latest" on "users"."id" = "latest"."user_id" `+
			`where "users"."active" = ?`,
		q.ToSQL())
	assert.Equal(t, []interface{}{true, 1}, q.GetBindings())
}

func TestJoin_SubBindingsPrecedeJoinBindings(t *testing.T) {
	sub := sqliteQuery().From("posts").Where("kind", "sub")
	q := sqliteQuery().From("users").
		LeftJoinSub(sub, "p", func(j *JoinClause) {
			j.On("p.user_id", "users.id").Where("p.state", "on")
		}).
		RightJoinSub("select 1 as x", "one", "one.x", "users.flag")

	assert.Equal(t,
		`select * from "users" left join (select * from "posts" where "kind" = ?) as "p" `+
			`on "p"."user_id" = "users"."id" and "p"."state" = ? right join (select 1 as x) as "one" on "one"."x" = "users"."flag"`,
		q.ToSQL())
	assert.Equal(t, []interface{}{"sub", "on"}, q.GetBindings())
}

func TestJoin_ClauseUsesParentFactory(t *testing.T) {
	parent := postgresQuery().From("users")
	j := newJoinClause(parent, JoinInner, "contacts")

	require.NotNil(t, j.Builder)
	assert.Same(t, parent.Grammar(), j.Grammar())
	assert.Same(t, parent.Grammar(), j.NewQuery().Grammar())
	assert.Equal(t, JoinInner, j.Type)
	assert.Equal(t, "contacts", j.Table)
}

func TestJoin_WhereInsideJoinSubquery(t *testing.T) {
	q := sqliteQuery().From("users").Join("contacts", func(j *JoinClause) {
		j.On("users.id", "contacts.user_id").WhereIn("contacts.kind", func(s *Builder) {
			s.Select("kind").From("kinds").Where("enabled", true)
		})
	})

	assert.Equal(t,
		`select * from "users" inner join "contacts" on "users"."id" = "contacts"."user_id" `+
			`and "contacts"."kind" in (select "kind" from "kinds" where "enabled" = ?)`,
		q.ToSQL())
	assert.Equal(t, []interface{}{true}, q.GetBindings())
}

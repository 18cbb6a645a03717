package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteQuery returns a compile-only builder using the SQLite grammar.
func sqliteQuery() *Builder {
	return NewBuilder(nil, NewSQLiteGrammar())
}

// requirePanicErr asserts that fn panics with an error wrapping target.
func requirePanicErr(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, target)
	}()
	fn()
}

func TestBuilder_SelectStar(t *testing.T) {
	q := NewBuilder(nil, nil).From("users")

	assert.Equal(t, `select * from "users"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_SelectColumns(t *testing.T) {
	q := sqliteQuery().Select("id", "users.name as n").From("users")
	assert.Equal(t, `select "id", "users"."name" as "n" from "users"`, q.ToSQL())

	q = sqliteQuery().Select([]string{"id", "email"}).From("users")
	assert.Equal(t, `select "id", "email" from "users"`, q.ToSQL())

	q.AddSelect("name")
	assert.Equal(t, `select "id", "email", "name" from "users"`, q.ToSQL())
}

func TestBuilder_SelectResetsSelectBindings(t *testing.T) {
	q := sqliteQuery().SelectRaw("price * ? as total", 2).From("orders")
	assert.Equal(t, []interface{}{2}, q.GetBindings())

	q.Select("id")
	assert.Equal(t, `select "id" from "orders"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_Distinct(t *testing.T) {
	q := sqliteQuery().Select("name").Distinct().From("users")
	assert.Equal(t, `select distinct "name" from "users"`, q.ToSQL())
}

func TestBuilder_FromAlias(t *testing.T) {
	q := sqliteQuery().Select("u.id").From("users", "u")
	assert.Equal(t, `select "u"."id" from "users" as "u"`, q.ToSQL())
}

func TestBuilder_TablePrefix(t *testing.T) {
	q := NewBuilder(nil, NewSQLiteGrammar().WithTablePrefix("app_")).
		Select("u.id").
		From("users as u")
	assert.Equal(t, `select "app_u"."id" from "app_users" as "app_u"`, q.ToSQL())
}

func TestBuilder_SelectSub(t *testing.T) {
	q := sqliteQuery().Select("name").SelectSub(func(s *Builder) {
		s.SelectRaw("count(*)").From("posts").WhereColumn("posts.user_id", "users.id")
	}, "post_count").From("users")

	assert.Equal(t,
		`select "name", (select count(*) from "posts" where "posts"."user_id" = "users"."id") as "post_count" from "users"`,
		q.ToSQL())
}

func TestBuilder_FromSub(t *testing.T) {
	q := sqliteQuery().FromSub(func(s *Builder) {
		s.From("orders").Where("total", ">", 10)
	}, "big").Where("big.user_id", 5)

	assert.Equal(t, `select * from (select * from "orders" where "total" > ?) as "big" where "big"."user_id" = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{10, 5}, q.GetBindings())
}

// TestBuilder_FromSubAfterJoin tests that FROM bindings precede join bindings
// whatever the call order.
func TestBuilder_FromSubAfterJoin(t *testing.T) {
	q := sqliteQuery().
		JoinWhere("x", "x.a", "=", 1).
		FromSub(func(s *Builder) { s.From("y").Where("y.b", 2) }, "t").
		Where("t.c", 3)

	assert.Equal(t,
		`select * from (select * from "y" where "y"."b" = ?) as "t" inner join "x" on "x"."a" = ? where "t"."c" = ?`,
		q.ToSQL())
	assert.Equal(t, []interface{}{2, 1, 3}, q.GetBindings())

	q.FromRaw("generate_series(?, ?) as t", 10, 20)
	assert.Equal(t, []interface{}{10, 20, 1}, q.GetRawBindings()[BindingJoin])

	q.From("plain")
	assert.Equal(t, `select * from "plain" inner join "x" on "x"."a" = ? where "t"."c" = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{1, 3}, q.GetBindings())
}

func TestBuilder_FromSubInvalidArgument(t *testing.T) {
	requirePanicErr(t, ErrInvalidSubquery, func() {
		sqliteQuery().FromSub(42, "x")
	})
}

func TestBuilder_Where(t *testing.T) {
	q := sqliteQuery().From("users").Where("age", ">", 18)

	assert.Equal(t, `select * from "users" where "age" > ?`, q.ToSQL())
	assert.Equal(t, []interface{}{18}, q.GetBindings())
}

// TestBuilder_WhereListValueBindsOnce tests that a list given to a basic
// comparison binds only its first element for the single placeholder.
func TestBuilder_WhereListValueBindsOnce(t *testing.T) {
	q := sqliteQuery().From("t").Where("id", "=", []int{1, 2}).Where("b", 3)

	assert.Equal(t, `select * from "t" where "id" = ? and "b" = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{1, 3}, q.GetBindings())

	q = sqliteQuery().From("t").Where("id", []interface{}{[]string{"x", "y"}}).Where("c", "=", []int{})
	assert.Equal(t, `select * from "t" where "id" = ? and "c" = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{"x", nil}, q.GetBindings())

	q = sqliteQuery().From("t").GroupBy("a").Having("a", ">", []int{1, 2}).Having("b", 4)
	assert.Equal(t, `select * from "t" group by "a" having "a" > ? and "b" = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{1, 4}, q.GetBindings())
}

func TestBuilder_OrWhere(t *testing.T) {
	q := sqliteQuery().From("users").Where("votes", ">", 100).OrWhere("name", "John")

	assert.Equal(t, `select * from "users" where "votes" > ? or "name" = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{100, "John"}, q.GetBindings())
}

func TestBuilder_WhereUnknownOperatorBecomesValue(t *testing.T) {
	// Operators are matched case-sensitively.
	q := sqliteQuery().From("posts").Where("title", "LIKE", "%go%")

	assert.Equal(t, `select * from "posts" where "title" = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{"LIKE"}, q.GetBindings())
}

func TestBuilder_WhereWithoutValueIsNoop(t *testing.T) {
	q := sqliteQuery().From("users").Where("age")

	assert.Equal(t, `select * from "users"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_WhereNull(t *testing.T) {
	q := sqliteQuery().From("users").Where("deleted_at", nil).Where("banned_at", "!=", nil)
	assert.Equal(t, `select * from "users" where "deleted_at" is null and "banned_at" is not null`, q.ToSQL())
	assert.Empty(t, q.GetBindings())

	q = sqliteQuery().From("users").WhereNull("a").OrWhereNotNull("b").OrWhereNull("c").WhereNotNull("d")
	assert.Equal(t, `select * from "users" where "a" is null or "b" is not null or "c" is null and "d" is not null`, q.ToSQL())
}

func TestBuilder_WhereMap(t *testing.T) {
	q := sqliteQuery().From("users").Where(map[string]interface{}{"name": "x", "age": 18})

	assert.Equal(t, `select * from "users" where ("age" = ? and "name" = ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{18, "x"}, q.GetBindings())
}

func TestBuilder_WhereList(t *testing.T) {
	q := sqliteQuery().From("users").Where([][]interface{}{
		{"age", ">", 18},
		{"name", "x"},
	})

	assert.Equal(t, `select * from "users" where ("age" > ? and "name" = ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{18, "x"}, q.GetBindings())
}

func TestBuilder_WhereNested(t *testing.T) {
	q := sqliteQuery().From("users").Where("a", 1).OrWhere(func(n *Builder) {
		n.Where("b", 2).Where("c", 3)
	})

	assert.Equal(t, `select * from "users" where "a" = ? or ("b" = ? and "c" = ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{1, 2, 3}, q.GetBindings())
}

func TestBuilder_WhereNestedEmptyGroupIsDropped(t *testing.T) {
	q := sqliteQuery().From("users").Where(func(*Builder) {})

	assert.Empty(t, q.wheres)
	assert.Equal(t, `select * from "users"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_WhereNot(t *testing.T) {
	q := sqliteQuery().From("users").WhereNot(func(n *Builder) {
		n.Where("banned", true)
	}).OrWhereNot(func(n *Builder) {
		n.Where("age", "<", 13)
	})

	assert.Equal(t, `select * from "users" where not ("banned" = ?) or not ("age" < ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{true, 13}, q.GetBindings())
}

func TestBuilder_WhereIn(t *testing.T) {
	q := sqliteQuery().From("users").WhereIn("id", []int{1, 2, 3})

	assert.Equal(t, `select * from "users" where "id" in (?, ?, ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{1, 2, 3}, q.GetBindings())
}

func TestBuilder_WhereInVariants(t *testing.T) {
	q := sqliteQuery().From("users").
		WhereNotIn("id", []interface{}{1, Raw("2")}).
		OrWhereIn("role", []string{"admin"}).
		OrWhereNotIn("state", []string{"gone"})

	assert.Equal(t, `select * from "users" where "id" not in (?, 2) or "role" in (?) or "state" not in (?)`, q.ToSQL())
	assert.Equal(t, []interface{}{1, "admin", "gone"}, q.GetBindings())
}

func TestBuilder_WhereInEmpty(t *testing.T) {
	q := sqliteQuery().From("users").WhereIn("id", []int{})
	assert.Equal(t, `select * from "users" where 0 = 1`, q.ToSQL())

	q = sqliteQuery().From("users").WhereNotIn("id", []int{})
	assert.Equal(t, `select * from "users" where 1 = 1`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_WhereInSubquery(t *testing.T) {
	q := sqliteQuery().From("users").WhereIn("id", func(s *Builder) {
		s.Select("user_id").From("orders").Where("total", ">", 100)
	})

	assert.Equal(t, `select * from "users" where "id" in (select "user_id" from "orders" where "total" > ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{100}, q.GetBindings())

	sub := sqliteQuery().Select("user_id").From("bans")
	q = sqliteQuery().From("users").WhereNotIn("id", sub)
	assert.Equal(t, `select * from "users" where "id" not in (select "user_id" from "bans")`, q.ToSQL())
}

func TestBuilder_WhereIntegerInRaw(t *testing.T) {
	q := sqliteQuery().From("users").
		WhereIntegerInRaw("id", []interface{}{"1", 2, 3.0}).
		WhereIntegerNotInRaw("group_id", []int{7})

	assert.Equal(t, `select * from "users" where "id" in (1, 2, 3) and "group_id" not in (7)`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_WhereSubqueryValue(t *testing.T) {
	q := sqliteQuery().From("accounts").Where("balance", ">", func(s *Builder) {
		s.SelectRaw("avg(balance)").From("accounts").Where("region", "eu")
	})

	assert.Equal(t, `select * from "accounts" where "balance" > (select avg(balance) from "accounts" where "region" = ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{"eu"}, q.GetBindings())
}

func TestBuilder_WhereBetween(t *testing.T) {
	q := sqliteQuery().From("users").
		WhereBetween("age", 18, 65).
		OrWhereNotBetween("score", 0, 10)

	assert.Equal(t, `select * from "users" where "age" between ? and ? or "score" not between ? and ?`, q.ToSQL())
	assert.Equal(t, []interface{}{18, 65, 0, 10}, q.GetBindings())
}

func TestBuilder_WhereColumn(t *testing.T) {
	q := sqliteQuery().From("users").
		WhereColumn("first_name", "last_name").
		OrWhereColumn("updated_at", ">", "created_at")

	assert.Equal(t, `select * from "users" where "first_name" = "last_name" or "updated_at" > "created_at"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_WhereRaw(t *testing.T) {
	q := sqliteQuery().From("users").
		WhereRaw("age > ? and votes < ?", 18, 100).
		OrWhereRaw("admin = 1")

	assert.Equal(t, `select * from "users" where age > ? and votes < ? or admin = 1`, q.ToSQL())
	assert.Equal(t, []interface{}{18, 100}, q.GetBindings())
}

func TestBuilder_WhereExists(t *testing.T) {
	q := sqliteQuery().From("users").WhereExists(func(s *Builder) {
		s.Select(Raw("1")).From("orders").WhereColumn("orders.user_id", "users.id")
	}).OrWhereNotExists(func(s *Builder) {
		s.Select(Raw("1")).From("bans").Where("bans.active", true)
	})

	assert.Equal(t,
		`select * from "users" where exists (select 1 from "orders" where "orders"."user_id" = "users"."id") `+
			`or not exists (select 1 from "bans" where "bans"."active" = ?)`,
		q.ToSQL())
	assert.Equal(t, []interface{}{true}, q.GetBindings())
}

func TestBuilder_WhereRowValues(t *testing.T) {
	q := sqliteQuery().From("orders").
		WhereRowValues([]string{"last_update", "order_number"}, "<", []interface{}{1, 2})

	assert.Equal(t, `select * from "orders" where ("last_update", "order_number") < (?, ?)`, q.ToSQL())
	assert.Equal(t, []interface{}{1, 2}, q.GetBindings())

	requirePanicErr(t, ErrRowValuesMismatch, func() {
		sqliteQuery().WhereRowValues([]string{"a", "b"}, "=", []interface{}{1})
	})
}

func TestBuilder_WhereJSONContainsUnencodableValue(t *testing.T) {
	q := sqliteQuery().From("users")

	requirePanicErr(t, ErrInvalidJSONValue, func() {
		q.WhereJSONContains("options->tags", make(chan int))
	})
	assert.Equal(t, `select * from "users"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())
}

func TestBuilder_Having(t *testing.T) {
	q := sqliteQuery().
		Select("dept", Raw("count(*) as total")).
		From("employees").
		GroupBy("dept").
		Having("total", ">", 5).
		OrHaving("total", "<", 2)

	assert.Equal(t,
		`select "dept", count(*) as total from "employees" group by "dept" having "total" > ? or "total" < ?`,
		q.ToSQL())
	assert.Equal(t, []interface{}{5, 2}, q.GetBindings())
}

func TestBuilder_HavingBetweenAndRaw(t *testing.T) {
	q := sqliteQuery().From("orders").
		GroupBy("customer_id").
		GroupByRaw("strftime('%Y', created_at)").
		HavingBetween("total", 10, 20).
		HavingRaw("sum(price) > ?", 100).
		OrHavingRaw("count(*) > 3")

	assert.Equal(t,
		`select * from "orders" group by "customer_id", strftime('%Y', created_at) `+
			`having "total" between ? and ? and sum(price) > ? or count(*) > 3`,
		q.ToSQL())
	assert.Equal(t, []interface{}{10, 20, 100}, q.GetBindings())
}

func TestBuilder_OrderBy(t *testing.T) {
	q := sqliteQuery().From("users").OrderBy("name").OrderBy("age", "DESC")
	assert.Equal(t, `select * from "users" order by "name" asc, "age" desc`, q.ToSQL())

	q = sqliteQuery().From("users").Latest()
	assert.Equal(t, `select * from "users" order by "created_at" desc`, q.ToSQL())

	q = sqliteQuery().From("users").Oldest("joined_at").OrderByDesc("id")
	assert.Equal(t, `select * from "users" order by "joined_at" asc, "id" desc`, q.ToSQL())
}

func TestBuilder_OrderByInvalidDirection(t *testing.T) {
	requirePanicErr(t, ErrInvalidDirection, func() {
		sqliteQuery().From("users").OrderBy("x", "BOGUS")
	})
}

func TestBuilder_OrderBySubqueryInvalidDirectionAddsNoBindings(t *testing.T) {
	q := sqliteQuery().From("users")

	requirePanicErr(t, ErrInvalidDirection, func() {
		q.OrderBy(func(s *Builder) {
			s.SelectRaw("max(at)").From("logins").Where("kind", "web")
		}, "sideways")
	})
	assert.Empty(t, q.GetBindings())
	assert.Equal(t, `select * from "users"`, q.ToSQL())
}

func TestBuilder_OrderByRawAndSubquery(t *testing.T) {
	q := sqliteQuery().From("users").
		OrderByRaw("case when id = ? then 0 else 1 end", 7).
		OrderBy(func(s *Builder) {
			s.SelectRaw("max(created_at)").From("logins").WhereColumn("logins.user_id", "users.id")
		}, "desc")

	assert.Equal(t,
		`select * from "users" order by case when id = ? then 0 else 1 end, `+
			`(select max(created_at) from "logins" where "logins"."user_id" = "users"."id") desc`,
		q.ToSQL())
	assert.Equal(t, []interface{}{7}, q.GetRawBindings()[BindingOrder])
}

func TestBuilder_Reorder(t *testing.T) {
	q := sqliteQuery().From("users").OrderBy("name").OrderByRaw("field(id, ?)", 3)
	q.Reorder()
	assert.Equal(t, `select * from "users"`, q.ToSQL())
	assert.Empty(t, q.GetBindings())

	q.Reorder("email", "desc")
	assert.Equal(t, `select * from "users" order by "email" desc`, q.ToSQL())
}

func TestBuilder_InRandomOrder(t *testing.T) {
	assert.Equal(t, `select * from "users" order by RANDOM()`, sqliteQuery().From("users").InRandomOrder().ToSQL())

	q := NewBuilder(nil, NewMySQLGrammar()).From("users").InRandomOrder("5")
	assert.Equal(t, "select * from `users` order by RAND(5)", q.ToSQL())
}

func TestBuilder_LimitOffset(t *testing.T) {
	q := sqliteQuery().From("users").Skip(10)
	assert.Equal(t, `select * from "users" limit -1 offset 10`, q.ToSQL())

	q.Take(5)
	assert.Equal(t, `select * from "users" limit 5 offset 10`, q.ToSQL())

	q.Take(-1).Skip(-5)
	assert.Equal(t, `select * from "users" limit 5 offset 0`, q.ToSQL())

	q = NewBuilder(nil, nil).From("users").Offset(10)
	assert.Equal(t, `select * from "users" offset 10`, q.ToSQL())

	q = sqliteQuery().From("users").ForPage(3, 15)
	assert.Equal(t, `select * from "users" limit 15 offset 30`, q.ToSQL())
}

func TestBuilder_Union(t *testing.T) {
	admins := sqliteQuery().From("admins").Where("id", 2)
	q := sqliteQuery().From("users").Where("id", 1).Union(admins)

	assert.Equal(t,
		`select * from (select * from "users" where "id" = ?) union select * from (select * from "admins" where "id" = ?)`,
		q.ToSQL())
	assert.Equal(t, []interface{}{1, 2}, q.GetBindings())
}

func TestBuilder_UnionAllWithOrderAndLimit(t *testing.T) {
	q := NewBuilder(nil, nil).From("users").
		UnionAll(func(s *Builder) { s.From("admins") }).
		OrderBy("id", "desc").
		Take(10).
		Skip(20)

	assert.Equal(t,
		`(select * from "users") union all (select * from "admins") order by "id" desc limit 10 offset 20`,
		q.ToSQL())
	assert.Nil(t, q.limit)
	assert.Empty(t, q.orders)
}

func TestBuilder_UnionInvalidArgument(t *testing.T) {
	requirePanicErr(t, ErrInvalidSubquery, func() {
		sqliteQuery().From("users").Union("select 1")
	})
}

func TestBuilder_BindingOrderFollowsBuckets(t *testing.T) {
	q := sqliteQuery().From("users").
		GroupBy("role").
		Having("total", ">", "having").
		Where("age", "where").
		JoinWhere("contacts", "contacts.kind", "=", "join").
		SelectRaw("? as tag", "select").
		OrderByRaw("field(id, ?)", "order").
		Union(sqliteQuery().From("admins").Where("flag", "union"))

	assert.Equal(t,
		[]interface{}{"select", "join", "where", "having", "order", "union"},
		q.GetBindings())
}

func TestBuilder_ToSQLIsIdempotent(t *testing.T) {
	q := sqliteQuery().From("users").
		Join("posts", "users.id", "posts.user_id").
		Where("age", ">", 18).
		WhereIn("role", []string{"a", "b"}).
		GroupBy("users.id").
		Having("total", ">", 1).
		OrderBy("name").
		Take(5)

	first, firstBindings := q.ToSQL(), q.GetBindings()
	assert.Equal(t, first, q.ToSQL())
	assert.Equal(t, firstBindings, q.GetBindings())
}

func TestBuilder_AddBinding(t *testing.T) {
	q := sqliteQuery()
	q.AddBinding([]interface{}{1, 2}, BindingWhere).AddBinding("x", BindingSelect)

	assert.Equal(t, []interface{}{"x", 1, 2}, q.GetBindings())

	requirePanicErr(t, ErrInvalidBindingType, func() {
		q.AddBinding(1, BindingType("bogus"))
	})
	requirePanicErr(t, ErrInvalidBindingType, func() {
		q.SetBindings(nil, BindingType("bogus"))
	})
}

func TestBuilder_SetAndMergeBindings(t *testing.T) {
	q := sqliteQuery().Where("a", 1)
	q.SetBindings([]interface{}{9}, BindingWhere)
	assert.Equal(t, []interface{}{9}, q.GetBindings())

	other := sqliteQuery().Where("b", 2).Having("c", 3)
	q.MergeBindings(other)
	assert.Equal(t, []interface{}{9, 2, 3}, q.GetBindings())

	raw := q.GetRawBindings()
	raw[BindingWhere][0] = "changed"
	assert.Equal(t, 9, q.GetRawBindings()[BindingWhere][0])
}

func TestBuilder_CloneIsIndependent(t *testing.T) {
	base := sqliteQuery().From("users").Where("a", 1).OrderBy("id")
	clone := base.Clone().Where("b", 2).OrderBy("name")

	assert.Equal(t, `select * from "users" where "a" = ? order by "id" asc`, base.ToSQL())
	assert.Equal(t, []interface{}{1}, base.GetBindings())
	assert.Equal(t, `select * from "users" where "a" = ? and "b" = ? order by "id" asc, "name" asc`, clone.ToSQL())
	assert.Equal(t, []interface{}{1, 2}, clone.GetBindings())
}

func TestBuilder_CloneWithout(t *testing.T) {
	q := sqliteQuery().Select("id").From("users").Where("a", 1).OrderBy("id").Take(5).Skip(5)

	c := q.CloneWithout(ComponentColumns, ComponentOrders, ComponentLimit, ComponentOffset)
	assert.Equal(t, `select * from "users" where "a" = ?`, c.ToSQL())
	assert.Equal(t, `select "id" from "users" where "a" = ? order by "id" asc limit 5 offset 5`, q.ToSQL())

	c = q.CloneWithout(ComponentWheres).CloneWithoutBindings(BindingWhere)
	assert.Empty(t, c.GetBindings())
	assert.Equal(t, []interface{}{1}, q.GetBindings())

	requirePanicErr(t, ErrInvalidBindingType, func() {
		q.CloneWithoutBindings(BindingType("bogus"))
	})
}

func TestBuilder_NewQuerySharesGrammar(t *testing.T) {
	g := NewPostgresGrammar()
	q := NewBuilder(nil, g).From("users")
	n := q.NewQuery()

	assert.Same(t, g, n.Grammar())
	assert.Nil(t, n.Connection())
	assert.Nil(t, n.from)
}

func TestBuilder_ExpressionsAreInlined(t *testing.T) {
	q := sqliteQuery().From("users").
		Where("created_at", ">", Raw("current_timestamp")).
		Where(Raw("lower(email)"), "a@b.c")

	assert.Equal(t, `select * from "users" where "created_at" > current_timestamp and lower(email) = ?`, q.ToSQL())
	assert.Equal(t, []interface{}{"a@b.c"}, q.GetBindings())
}

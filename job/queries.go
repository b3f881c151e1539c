// Package job holds Join Order Benchmark queries over the IMDB schema,
// expressed as core query descriptions. Predicates are copied from the
// benchmark text verbatim, including its known typos.
package job

import (
	"sort"

	"jobbench/core"
	v "jobbench/vectorized"
)

var nordic = []interface{}{"Sweden", "Norway", "Germany", "Denmark", "Swedish", "Denish", "Norwegian", "German"}

var queries = map[string]func() *core.Query{
	"1a": func() *core.Query {
		return core.NewQuery("1a").
			From("ct", "company_type").
			From("it", "info_type").
			From("mc", "movie_companies").
			From("mi_idx", "movie_info_idx").
			From("t", "title").
			Where("ct", v.Eq("kind", "production companies")).
			Where("it", v.Eq("info", "top 250 rank")).
			Where("mc", v.NotLike("note", "%(as Metro-Goldwyn-Mayer Pictures)%")).
			Where("mc", v.Or(v.Like("note", "%(co-production)%"), v.Like("note", "%(presents)%"))).
			Join("ct.id", "mc.company_type_id").
			Join("t.id", "mc.movie_id", "mi_idx.movie_id").
			Join("it.id", "mi_idx.info_type_id").
			Min("production_note", "mc.note").
			Min("movie_title", "t.title").
			Min("movie_year", "t.production_year").
			MustBuild()
	},
	"2a": func() *core.Query {
		return core.NewQuery("2a").
			From("cn", "company_name").
			From("k", "keyword").
			From("mc", "movie_companies").
			From("mk", "movie_keyword").
			From("t", "title").
			Where("cn", v.Eq("country_code", "[de]")).
			Where("k", v.Eq("keyword", "character-name-in-title")).
			Join("cn.id", "mc.company_id").
			Join("mc.movie_id", "t.id", "mk.movie_id").
			Join("mk.keyword_id", "k.id").
			Min("movie_title", "t.title").
			MustBuild()
	},
	"3a": func() *core.Query {
		return core.NewQuery("3a").
			From("k", "keyword").
			From("mi", "movie_info").
			From("mk", "movie_keyword").
			From("t", "title").
			Where("k", v.Like("keyword", "%sequel%")).
			Where("mi", v.In("info", nordic...)).
			Where("t", v.Gt("production_year", 2005)).
			Join("t.id", "mi.movie_id", "mk.movie_id").
			Join("k.id", "mk.keyword_id").
			Min("movie_title", "t.title").
			MustBuild()
	},
	"4a": func() *core.Query {
		return core.NewQuery("4a").
			From("it", "info_type").
			From("k", "keyword").
			From("mi_idx", "movie_info_idx").
			From("mk", "movie_keyword").
			From("t", "title").
			Where("it", v.Eq("info", "rating")).
			Where("k", v.Like("keyword", "%sequel%")).
			// rating is a string column; the comparison is lexicographic
			Where("mi_idx", v.Gt("info", "5.0")).
			Where("t", v.Gt("production_year", 2005)).
			Join("t.id", "mi_idx.movie_id", "mk.movie_id").
			Join("k.id", "mk.keyword_id").
			Join("it.id", "mi_idx.info_type_id").
			Min("rating", "mi_idx.info").
			Min("movie_title", "t.title").
			MustBuild()
	},
	"5a": func() *core.Query {
		return core.NewQuery("5a").
			From("ct", "company_type").
			From("it", "info_type").
			From("mc", "movie_companies").
			From("mi", "movie_info").
			From("t", "title").
			Where("ct", v.Eq("kind", "production companies")).
			Where("mc", v.Like("note", "%(theatrical)%")).
			Where("mc", v.Like("note", "%(France)%")).
			Where("mi", v.In("info", nordic...)).
			Where("t", v.Gt("production_year", 2005)).
			Join("t.id", "mi.movie_id", "mc.movie_id").
			Join("ct.id", "mc.company_type_id").
			Join("it.id", "mi.info_type_id").
			Min("typical_european_movie", "t.title").
			MustBuild()
	},
	"6a": func() *core.Query {
		return core.NewQuery("6a").
			From("ci", "cast_info").
			From("k", "keyword").
			From("mk", "movie_keyword").
			From("n", "name").
			From("t", "title").
			Where("k", v.Eq("keyword", "marvel-cinematic-universe")).
			Where("n", v.Like("name", "%Downey%Robert%")).
			Where("t", v.Gt("production_year", 2010)).
			Join("k.id", "mk.keyword_id").
			Join("t.id", "mk.movie_id", "ci.movie_id").
			Join("n.id", "ci.person_id").
			Min("movie_keyword", "k.keyword").
			Min("actor_name", "n.name").
			Min("marvel_movie", "t.title").
			MustBuild()
	},
	"17a": func() *core.Query {
		return core.NewQuery("17a").
			From("ci", "cast_info").
			From("cn", "company_name").
			From("k", "keyword").
			From("mc", "movie_companies").
			From("mk", "movie_keyword").
			From("n", "name").
			From("t", "title").
			Where("cn", v.Eq("country_code", "[us]")).
			Where("k", v.Eq("keyword", "character-name-in-title")).
			Where("n", v.Like("name", "B%")).
			Join("n.id", "ci.person_id").
			Join("ci.movie_id", "t.id", "mk.movie_id", "mc.movie_id").
			Join("mk.keyword_id", "k.id").
			Join("mc.company_id", "cn.id").
			Min("member_in_charnamed_american_movie", "n.name").
			Min("a1", "n.name").
			MustBuild()
	},
	"32a": func() *core.Query {
		return core.NewQuery("32a").
			From("k", "keyword").
			From("lt", "link_type").
			From("mk", "movie_keyword").
			From("ml", "movie_link").
			From("t1", "title").
			From("t2", "title").
			Where("k", v.Eq("keyword", "10,000-mile-club")).
			Join("mk.keyword_id", "k.id").
			Join("t1.id", "mk.movie_id", "ml.movie_id").
			Join("ml.linked_movie_id", "t2.id").
			Join("lt.id", "ml.link_type_id").
			Min("link_type", "lt.link").
			Min("first_movie", "t1.title").
			Min("second_movie", "t2.title").
			MustBuild()
	},
}

// Lookup returns a fresh copy of the named query.
func Lookup(name string) (*core.Query, bool) {
	build, ok := queries[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

// Names lists the available queries in benchmark order (1a < 2a < 17a).
func Names() []string {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return less(names[i], names[j]) })
	return names
}

// All builds every query in benchmark order.
func All() []*core.Query {
	var all []*core.Query
	for _, name := range Names() {
		q, _ := Lookup(name)
		all = append(all, q)
	}
	return all
}

func less(a, b string) bool {
	na, sa := split(a)
	nb, sb := split(b)
	if na != nb {
		return na < nb
	}
	return sa < sb
}

func split(name string) (int, string) {
	n, i := 0, 0
	for ; i < len(name) && name[i] >= '0' && name[i] <= '9'; i++ {
		n = n*10 + int(name[i]-'0')
	}
	return n, name[i:]
}

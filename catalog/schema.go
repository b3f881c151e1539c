package catalog

import (
	"jobbench/vectorized"
)

func intCol(name string) ColumnMetadata {
	return ColumnMetadata{Name: name, Type: vectorized.INT64, Nullable: true}
}

func strCol(name string) ColumnMetadata {
	return ColumnMetadata{Name: name, Type: vectorized.STRING, Nullable: true}
}

func idCol() ColumnMetadata {
	return ColumnMetadata{Name: "id", Type: vectorized.INT64}
}

func table(name string, fks map[string]string, cols ...ColumnMetadata) *TableMetadata {
	return &TableMetadata{
		Name:        name,
		Columns:     append([]ColumnMetadata{idCol()}, cols...),
		PrimaryKey:  "id",
		ForeignKeys: fks,
	}
}

// IMDBTables describes the 21 tables of the IMDB snapshot used by the
// Join Order Benchmark.
func IMDBTables() []*TableMetadata {
	return []*TableMetadata{
		table("aka_name", map[string]string{"person_id": "name"},
			intCol("person_id"), strCol("name"), strCol("imdb_index"), strCol("name_pcode_cf"),
			strCol("name_pcode_nf"), strCol("surname_pcode"), strCol("md5sum")),
		table("aka_title", map[string]string{"movie_id": "title", "kind_id": "kind_type"},
			intCol("movie_id"), strCol("title"), strCol("imdb_index"), intCol("kind_id"),
			intCol("production_year"), strCol("phonetic_code"), intCol("episode_of_id"),
			intCol("season_nr"), intCol("episode_nr"), strCol("note"), strCol("md5sum")),
		table("cast_info", map[string]string{
			"person_id": "name", "movie_id": "title", "person_role_id": "char_name", "role_id": "role_type",
		},
			intCol("person_id"), intCol("movie_id"), intCol("person_role_id"), strCol("note"),
			intCol("nr_order"), intCol("role_id")),
		table("char_name", nil,
			strCol("name"), strCol("imdb_index"), intCol("imdb_id"), strCol("name_pcode_nf"),
			strCol("surname_pcode"), strCol("md5sum")),
		table("comp_cast_type", nil, strCol("kind")),
		table("company_name", nil,
			strCol("name"), strCol("country_code"), intCol("imdb_id"), strCol("name_pcode_nf"),
			strCol("name_pcode_sf"), strCol("md5sum")),
		table("company_type", nil, strCol("kind")),
		table("complete_cast", map[string]string{
			"movie_id": "title", "subject_id": "comp_cast_type", "status_id": "comp_cast_type",
		},
			intCol("movie_id"), intCol("subject_id"), intCol("status_id")),
		table("info_type", nil, strCol("info")),
		table("keyword", nil, strCol("keyword"), strCol("phonetic_code")),
		table("kind_type", nil, strCol("kind")),
		table("link_type", nil, strCol("link")),
		table("movie_companies", map[string]string{
			"movie_id": "title", "company_id": "company_name", "company_type_id": "company_type",
		},
			intCol("movie_id"), intCol("company_id"), intCol("company_type_id"), strCol("note")),
		table("movie_info", map[string]string{"movie_id": "title", "info_type_id": "info_type"},
			intCol("movie_id"), intCol("info_type_id"), strCol("info"), strCol("note")),
		table("movie_info_idx", map[string]string{"movie_id": "title", "info_type_id": "info_type"},
			intCol("movie_id"), intCol("info_type_id"), strCol("info"), strCol("note")),
		table("movie_keyword", map[string]string{"movie_id": "title", "keyword_id": "keyword"},
			intCol("movie_id"), intCol("keyword_id")),
		table("movie_link", map[string]string{
			"movie_id": "title", "linked_movie_id": "title", "link_type_id": "link_type",
		},
			intCol("movie_id"), intCol("linked_movie_id"), intCol("link_type_id")),
		table("name", nil,
			strCol("name"), strCol("imdb_index"), intCol("imdb_id"), strCol("gender"),
			strCol("name_pcode_cf"), strCol("name_pcode_nf"), strCol("surname_pcode"), strCol("md5sum")),
		table("person_info", map[string]string{"person_id": "name", "info_type_id": "info_type"},
			intCol("person_id"), intCol("info_type_id"), strCol("info"), strCol("note")),
		table("role_type", nil, strCol("role")),
		table("title", map[string]string{"kind_id": "kind_type", "episode_of_id": "title"},
			strCol("title"), strCol("imdb_index"), intCol("kind_id"), intCol("production_year"),
			intCol("imdb_id"), strCol("phonetic_code"), intCol("episode_of_id"), intCol("season_nr"),
			intCol("episode_nr"), strCol("series_years"), strCol("md5sum")),
	}
}

// IMDBSchema returns the IMDB schema with its key metadata.
func IMDBSchema() *Schema {
	s, err := NewSchema("imdb", IMDBTables()...)
	if err != nil {
		panic(err)
	}
	return s
}

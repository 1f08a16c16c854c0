package schema

// Default returns the layout of the local CDI database.
func Default() *Schema {
	return &Schema{
		Name: "cdi",
		Fact: "DataValue",
		Joins: []Join{
			{Table: "Year", Left: "DataValue.YearID", Right: "Year.YearID"},
			{Table: "Location", Left: "DataValue.LocationID", Right: "Location.LocationID"},
			{Table: "Question", Left: "DataValue.QuestionID", Right: "Question.QuestionID"},
			{Table: "Topic", Left: "Question.TopicID", Right: "Topic.TopicID"},
		},
		Columns: []string{
			"Year.Year",
			"Location.LocationDesc",
			"Topic.Topic",
			"Question.Question",
			"DataValue.DataValue",
			"DataValue.DataValueUnit",
		},
		Dimensions: []Dimension{
			{Name: "year", Label: "Year", Table: "Year", Column: "Year"},
			{Name: "location", Label: "Location", Table: "Location", Column: "LocationDesc"},
			{Name: "topic", Label: "Topic", Table: "Topic", Column: "Topic"},
		},
		Geo: Geo{Latitude: "Latitude", Longitude: "Longitude"},
	}
}

// Hosted returns the hosted CDI layout, which adds the data source dimension
// and location coordinates to the default one.
func Hosted() *Schema {
	s := Default()
	s.Name = "cdi-hosted"
	s.Joins = append(s.Joins, Join{Table: "DataSource", Left: "DataValue.DataSourceID", Right: "DataSource.DataSourceID"})
	s.Columns = append(s.Columns, "DataSource.DataSource", "Location.Latitude", "Location.Longitude")
	s.Dimensions = append(s.Dimensions, Dimension{Name: "datasource", Label: "Data Source", Table: "DataSource", Column: "DataSource"})
	return s
}

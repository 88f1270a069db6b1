package target

// Level is a certification tier a member works toward.
type Level string

const (
	LevelInstructor Level = "INSTRUCTOR"
	LevelCurator    Level = "CURATOR"
	LevelSupervisor Level = "SUPERVISOR"
)

// levelGroups maps each level to the name of the group that awards it.
var levelGroups = map[Level]string{
	LevelInstructor: "Инструктор",
	LevelCurator:    "Куратор",
	LevelSupervisor: "Супервизор",
}

func (l Level) Valid() bool {
	_, ok := levelGroups[l]
	return ok
}

// GroupName returns the ranking group that corresponds to l.
func (l Level) GroupName() string {
	return levelGroups[l]
}

// Levels lists the recognized levels in ascending order of seniority.
func Levels() []Level {
	return []Level{LevelInstructor, LevelCurator, LevelSupervisor}
}

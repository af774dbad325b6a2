package messages

// ------------------------------------------------------------------------------------------------------------------- //
// COMMUNITY

/*
A community owns funding programs and lives on exactly one network.
Every attestation for a grant of the community must be made on NetworkID.
EncryptionKey is an optional hex encoded secp256k1 public key, answers marked private are
encrypted to it before they leave the submitter.
*/
type Community struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	NetworkID     uint64    `json:"networkId" yaml:"networkId"`
	EncryptionKey string    `json:"encryptionKey,omitempty" yaml:"encryptionKey,omitempty"`
	Admins        []string  `json:"admins,omitempty" yaml:"admins,omitempty"`
	Programs      []Program `json:"programs,omitempty" yaml:"programs,omitempty"`
}

func (community *Community) Program(id string) (Program, bool) {
	for _, program := range community.Programs {
		if program.ID == id {
			return program, true
		}
	}
	return Program{}, false
}

// ------------------------------------------------------------------------------------------------------------------- //
// PROGRAM

/*
A funding program. The ID carries the network as a suffix ("<base>_<network>"),
the same program deployed on two networks shares the base.
*/
type Program struct {
	ID          string     `json:"id" yaml:"id"`
	CommunityID string     `json:"communityId" yaml:"communityId"`
	Name        string     `json:"name" yaml:"name"`
	Tracks      []Track    `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Questions   []Question `json:"questions,omitempty" yaml:"questions,omitempty"`
}

func (program *Program) Track(id string) (Track, bool) {
	for _, track := range program.Tracks {
		if track.ID == id {
			return track, true
		}
	}
	return Track{}, false
}

func (program *Program) Question(id string) (Question, bool) {
	for _, question := range program.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

type Track struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Question struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Private  bool   `json:"private,omitempty" yaml:"private,omitempty"`
}

package modules

import "errors"

var ErrTrackNotSelected = errors.New("track not selected")

// TrackSelection is an ordered set of track ids of one program, with an optional
// justification per selected track.
type TrackSelection struct {
	ids            []string
	justifications map[string]string
}

// Toggle adds or removes id and reports whether it is selected afterwards.
func (selection *TrackSelection) Toggle(id string) bool {
	for i, selected := range selection.ids {
		if selected == id {
			selection.ids = append(selection.ids[:i], selection.ids[i+1:]...)
			delete(selection.justifications, id)
			return false
		}
	}
	selection.ids = append(selection.ids, id)
	return true
}

func (selection *TrackSelection) Has(id string) bool {
	for _, selected := range selection.ids {
		if selected == id {
			return true
		}
	}
	return false
}

func (selection *TrackSelection) SetJustification(id, text string) error {
	if !selection.Has(id) {
		return ErrTrackNotSelected
	}
	if selection.justifications == nil {
		selection.justifications = make(map[string]string)
	}
	selection.justifications[id] = text
	return nil
}

func (selection *TrackSelection) Justification(id string) string {
	return selection.justifications[id]
}

func (selection *TrackSelection) IDs() []string {
	return append([]string(nil), selection.ids...)
}

func (selection *TrackSelection) Len() int {
	return len(selection.ids)
}

func (selection *TrackSelection) Clear() {
	selection.ids = nil
	selection.justifications = nil
}

func (selection *TrackSelection) clone() TrackSelection {
	clone := TrackSelection{ids: selection.IDs()}
	if selection.justifications != nil {
		clone.justifications = make(map[string]string, len(selection.justifications))
		for id, text := range selection.justifications {
			clone.justifications[id] = text
		}
	}
	return clone
}

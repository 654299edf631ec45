package customize

import (
	"storefront/internal/apperr"
	"storefront/internal/models"
)

// WizardState is the position of a combo wizard in its flow
type WizardState int

const (
	ChoosingBurger WizardState = iota
	CustomizingBurger
	AllSelected
	Cancelled
)

func (s WizardState) String() string {
	switch s {
	case ChoosingBurger:
		return "choosing_burger"
	case CustomizingBurger:
		return "customizing_burger"
	case AllSelected:
		return "all_selected"
	default:
		return "cancelled"
	}
}

// ComboWizard walks the customer through picking and customizing every
// burger of a combo, one step at a time.
type ComboWizard struct {
	combo      models.Product
	candidates []models.Product
	required   int
	state      WizardState
	current    *Session
	selections []models.ComboBurgerSelection
	onComplete func([]models.ComboBurgerSelection)
}

// NewComboWizard starts a wizard for combo. onComplete, if not nil, is called
// once with exactly Required() selections.
func NewComboWizard(combo models.Product, catalog []models.Product, onComplete func([]models.ComboBurgerSelection)) (*ComboWizard, error) {
	if !combo.IsCombo {
		return nil, apperr.Validation("%s is not a combo", combo.Name)
	}
	candidates := Candidates(combo, catalog)
	if len(candidates) == 0 {
		return nil, apperr.Validation("no burgers available for %s", combo.Name)
	}
	required := combo.BurgersToSelect
	if required <= 0 {
		required = 1
	}
	return &ComboWizard{
		combo:      combo.Clone(),
		candidates: candidates,
		required:   required,
		state:      ChoosingBurger,
		onComplete: onComplete,
	}, nil
}

// Candidates lists the burgers a combo may contain: the allowed ids when the
// combo restricts them, otherwise every non-combo product in Burgers.
func Candidates(combo models.Product, catalog []models.Product) []models.Product {
	var out []models.Product
	if len(combo.AllowedBurgers) > 0 {
		for _, id := range combo.AllowedBurgers {
			for _, p := range catalog {
				if p.ID == id && !p.IsCombo {
					out = append(out, p.Clone())
					break
				}
			}
		}
		return out
	}
	for _, p := range catalog {
		if p.InCategory(models.CategoryBurgers) && !p.IsCombo {
			out = append(out, p.Clone())
		}
	}
	return out
}

// State returns the current state
func (w *ComboWizard) State() WizardState { return w.state }

// Step returns the zero-based index of the burger being chosen
func (w *ComboWizard) Step() int { return len(w.selections) }

// Required returns how many burgers the combo needs
func (w *ComboWizard) Required() int { return w.required }

// Candidates returns the burgers offered by this wizard
func (w *ComboWizard) Candidates() []models.Product {
	out := make([]models.Product, len(w.candidates))
	for i, p := range w.candidates {
		out[i] = p.Clone()
	}
	return out
}

// Current returns the customization of the burger being edited, or nil
func (w *ComboWizard) Current() *Session { return w.current }

// SelectBurger picks the burger for the current step
func (w *ComboWizard) SelectBurger(burgerID string) error {
	if w.state != ChoosingBurger {
		return apperr.Validation("cannot choose a burger while %s", w.state)
	}
	var burger *models.Product
	for i := range w.candidates {
		if w.candidates[i].ID == burgerID {
			burger = &w.candidates[i]
			break
		}
	}
	if burger == nil {
		return apperr.Validation("burger %q is not available in %s", burgerID, w.combo.Name)
	}
	if w.combo.AllowDuplicateBurgers != nil && !*w.combo.AllowDuplicateBurgers {
		for _, s := range w.selections {
			if s.Burger.ID == burgerID {
				return apperr.Validation("%s can only be chosen once in %s", burger.Name, w.combo.Name)
			}
		}
	}
	w.current = Open(*burger)
	w.state = CustomizingBurger
	return nil
}

// ToggleExtra toggles an extra on the burger being customized
func (w *ComboWizard) ToggleExtra(extraID string) error {
	if w.state != CustomizingBurger {
		return apperr.Validation("no burger is being customized")
	}
	return w.current.ToggleExtra(extraID)
}

// SetNotes sets the notes of the burger being customized
func (w *ComboWizard) SetNotes(notes string) error {
	if w.state != CustomizingBurger {
		return apperr.Validation("no burger is being customized")
	}
	return w.current.SetNotes(notes)
}

// ConfirmBurger records the current burger and advances to the next step,
// completing the wizard after the last one.
func (w *ComboWizard) ConfirmBurger() error {
	if w.state != CustomizingBurger {
		return apperr.Validation("no burger is being customized")
	}
	burger := w.current.Product()
	sel, err := w.current.Confirm()
	if err != nil {
		return err
	}
	w.selections = append(w.selections, models.ComboBurgerSelection{
		Burger: burger,
		Extras: sel.Extras,
		Notes:  sel.Notes,
	})
	w.current = nil

	if len(w.selections) < w.required {
		w.state = ChoosingBurger
		return nil
	}
	w.state = AllSelected
	if w.onComplete != nil {
		w.onComplete(w.Selections())
	}
	return nil
}

// Cancel discards the whole wizard
func (w *ComboWizard) Cancel() {
	w.state = Cancelled
	w.current = nil
	w.selections = nil
}

// Selections returns a copy of the confirmed burgers
func (w *ComboWizard) Selections() []models.ComboBurgerSelection {
	return models.CloneSelections(w.selections)
}

// BurgerPick is one non-interactive wizard step
type BurgerPick struct {
	BurgerID string   `json:"burger_id"`
	ExtraIDs []string `json:"extra_ids"`
	Notes    string   `json:"notes"`
}

// Replay drives a wizard through picks and returns the completed selections.
// It fails unless picks covers exactly every required burger.
func Replay(combo models.Product, catalog []models.Product, picks []BurgerPick) ([]models.ComboBurgerSelection, error) {
	var done []models.ComboBurgerSelection
	w, err := NewComboWizard(combo, catalog, func(s []models.ComboBurgerSelection) { done = s })
	if err != nil {
		return nil, err
	}
	if len(picks) != w.Required() {
		return nil, apperr.Validation("%s requires %d burgers, got %d", combo.Name, w.Required(), len(picks))
	}
	for _, pick := range picks {
		if err := w.SelectBurger(pick.BurgerID); err != nil {
			return nil, err
		}
		for _, id := range pick.ExtraIDs {
			if err := w.ToggleExtra(id); err != nil {
				return nil, err
			}
		}
		if err := w.SetNotes(pick.Notes); err != nil {
			return nil, err
		}
		if err := w.ConfirmBurger(); err != nil {
			return nil, err
		}
	}
	return done, nil
}

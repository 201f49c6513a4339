package router

import (
	"errors"
	"fmt"

	"github.com/mmynk/wichtelbot/internal/santa"
)

const (
	msgWelcome = "Hallo! Ich bin der Wichtelbot 🎅\n" +
		"Erstelle eine Gruppe mit /create <Gruppenname> oder tritt einer bei mit /join <Gruppenname>.\n" +
		"/help zeigt alle Befehle."

	msgHelp = "Befehle:\n" +
		"/create <Gruppe> - neue Wichtelgruppe erstellen\n" +
		"/join <Gruppe> [Name] - einer Gruppe beitreten\n" +
		"/leave - deine Gruppe verlassen\n" +
		"/status - zeigt deine Gruppe und deinen Wunsch\n" +
		"/list <Gruppe> - Teilnehmer anzeigen\n" +
		"/wish <Text> - Wunsch hinterlegen\n" +
		"/restrict <Gruppe> <Schenker> <Beschenkter> - Paarung ausschließen\n" +
		"/assign <Gruppe> [circle] - Wichtel auslosen\n" +
		"/reset <Gruppe> - alle Teilnehmer entfernen\n" +
		"/delete <Gruppe> - Gruppe löschen\n" +
		"/cancel - laufende Eingabe abbrechen"

	msgCreated        = "Die Wichtelgruppe '%s' wurde erstellt! Andere treten mit /join %s bei."
	msgDeleted        = "Die Gruppe '%s' wurde gelöscht."
	msgJoined         = "Du bist der Gruppe '%s' als %s beigetreten! 🎉"
	msgLeft           = "Du hast die Gruppe '%s' verlassen."
	msgLeftDeleted    = "Du hast die Gruppe '%s' verlassen. Sie war danach leer und wurde gelöscht."
	msgStatusNone     = "Du bist in keiner Gruppe."
	msgStatus         = "Du bist in der Gruppe '%s' (%d Teilnehmer)."
	msgStatusOwner    = "Du hast diese Gruppe erstellt."
	msgStatusWish     = "Dein Wunsch: %s"
	msgListEmpty      = "Es gibt noch keine Teilnehmer in dieser Gruppe."
	msgListHeader     = "Aktuelle Teilnehmer in Gruppe %s:"
	msgRestricted     = "%s wird %s nicht ziehen."
	msgRestrictedDup  = "Diese Einschränkung gibt es schon."
	msgRestrictUsage  = "Nutzung: /restrict <Gruppe> <Schenker> <Beschenkter>"
	msgWishStored     = "Dein Wunsch wurde gespeichert."
	msgWishUsage      = "Nutzung: /wish <Text>"
	msgAssigned       = "Wichtel wurden für Gruppe %s zugewiesen!"
	msgAssignedCircle = "Wichtel wurden für Gruppe %s im Kreis zugewiesen!"
	msgNotifyFailed   = "Diese Teilnehmer konnten nicht benachrichtigt werden: %s"
	msgReset          = "Die Gruppe '%s' wurde zurückgesetzt (%d Teilnehmer entfernt)."
	msgGroupsEmpty    = "Es gibt keine Gruppen."
	msgGroupsHeader   = "Alle Gruppen:"
	msgGroupsLine     = "- %s (%d Teilnehmer)"
	msgAskGroupName   = "Bitte gib den Gruppennamen an."
	msgAskDisplayName = "Wie sollen dich die anderen nennen? Schick mir deinen Anzeigenamen."
	msgCancelled      = "Abgebrochen."
	msgNothingPending = "Es gibt nichts abzubrechen."
	msgUnknown        = "Unbekannter Befehl. /help zeigt alle Befehle."
	msgPlainText      = "Ich verstehe nur Befehle. /help zeigt alle Befehle."

	msgInvalidGroupName   = "Gruppennamen dürfen keine Leerzeichen enthalten und höchstens %d Zeichen lang sein."
	msgInvalidDisplayName = "Der Anzeigename darf nicht leer und höchstens %d Zeichen lang sein."
	msgInvalidWish        = "Der Wunsch darf nicht leer und höchstens 500 Zeichen lang sein."
	msgInvalidMode        = "Unbekannter Modus '%s'. Erlaubt ist: circle"
	msgUnknownName        = "'%s' ist nicht in der Gruppe."
	msgAmbiguousName      = "'%s' ist nicht eindeutig. Nutze die Benutzer-ID."
	msgSameUser           = "Schenker und Beschenkter müssen verschiedene Personen sein."
)

// Texts by error kind.
var kindText = map[santa.Kind]string{
	santa.KindValidation:               "Ungültige Eingabe.",
	santa.KindNotFound:                 "Diese Gruppe gibt es nicht.",
	santa.KindAlreadyExists:            "Eine Gruppe mit diesem Namen gibt es schon.",
	santa.KindAlreadyInGroup:           "Du bist bereits in einer Gruppe. Verlasse sie zuerst mit /leave.",
	santa.KindNotInGroup:               "Du bist in keiner Gruppe.",
	santa.KindForbidden:                "Das darf nur der Ersteller der Gruppe oder der Admin.",
	santa.KindInsufficientParticipants: "Es gibt nicht genug Teilnehmer, um Wichteln durchzuführen!",
	santa.KindInfeasible:               "Mit diesen Einschränkungen lässt sich keine Zuteilung finden.",
	santa.KindPersistence:              "⚠️ Die Änderung konnte nicht gespeichert werden und geht bei einem Neustart verloren.",
	santa.KindInternal:                 "Ein Fehler ist aufgetreten. Versuch es nochmal.",
}

// replyError carries a user-facing text for an error the router detected
// itself.
type replyError struct {
	text string
	err  error
}

func (e *replyError) Error() string { return e.err.Error() }
func (e *replyError) Unwrap() error { return e.err }

// invalidf returns a validation error shown to the user as the formatted text.
func invalidf(cause error, format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	err := fmt.Errorf("%w: %s", santa.ErrInvalidInput, text)
	if cause != nil {
		err = fmt.Errorf("%w: %w", santa.ErrInvalidInput, cause)
	}
	return &replyError{text: text, err: err}
}

func errorText(err error) string {
	var reply *replyError
	if errors.As(err, &reply) {
		return reply.text
	}
	if errors.Is(err, santa.ErrNotAParticipant) {
		return "Schenker und Beschenkter müssen beide in der Gruppe sein."
	}
	return kindText[santa.KindOf(err)]
}

// Package message はユーザーと介護者に向けた文面（Hinglish）を生成する。
package message

import (
	"fmt"
	"strings"

	"github.com/hitoshi/medmitra/internal/model"
)

// 定型の応答文
const (
	ReplyTaken        = "Bahut accha. Main aapke record mein note kar deta hoon. Dhanyavaad, apna dhyan rakhiye."
	ReplyNotTaken     = "Koi baat nahi. Main 10 minute baad dubara yaad kara dunga. Kripya dava le lijiye."
	ReplyConfused     = "Main yahan hoon aapki madad ke liye. Aap akelay nahi hain. Kya main aapki koi aur madad kar sakta hoon?"
	ReplyEmergency    = "Kripya apne doctor ya nearest clinic se turant sampark karein. Main emergency medical advice nahi de sakta. Agar zarurat ho to 102 ya 108 par call karein."
	ReplyAckNoContext = "Accha. Kya main aapki koi aur madad kar sakta hoon?"
	ReplyNoNoContext  = "Theek hai. Kya main aapki koi aur madad kar sakta hoon?"
	ReplyAskWhichMed  = "Kya aap kisi specific dava ke baare mein poochh rahe hain? Kripya dava ka naam bataiye."
	ReplyUnknown      = "Main aapki baat samajh nahi paya. Kya aap 'Haan' ya 'Nahi' bol sakte hain? Ya phir aap koi sawaal poochh sakte hain."
)

const genericExplanation = "Yeh dawa aapke doctor ne aapki sehat ke liye prescribe ki hai. Kripya doctor ke instructions ke mutabik lein."

// explanations は薬名（部分一致、小文字）から平易な説明への対応表。
// 走査順を固定するためスライスで保持する。
var explanations = []struct {
	key  string
	text string
}{
	{"metformin", "Yeh dawa aapke blood sugar ko control karti hai, taaki aap healthy rahein."},
	{"metoprolol", "Yeh dawa aapke blood pressure aur dil ki dhadkan ko normal rakhti hai, taaki dil ko zyada mehnat na karni pade."},
	{"aspirin", "Yeh dawa blood ko thin rakhti hai, taaki clots na banein aur heart healthy rahe."},
	{"atorvastatin", "Yeh dawa cholesterol ko kam karti hai, taaki heart aur blood vessels sahi kaam karein."},
	{"amlodipine", "Yeh dawa blood pressure ko kam karti hai, taaki dil aur blood vessels par zyada pressure na pade."},
	{"omeprazole", "Yeh dawa pet ki acid ko kam karti hai, taaki pet mein jalan na ho."},
	{"levothyroxine", "Yeh dawa thyroid gland ko sahi kaam karne mein madad karti hai."},
}

// Explanation は薬名に対応する平易な説明を返す。該当がなければ汎用の説明を返す。
func Explanation(medicationName string) string {
	lower := strings.ToLower(medicationName)
	for _, e := range explanations {
		if strings.Contains(lower, e.key) {
			return e.text
		}
	}
	return genericExplanation
}

// SlotGreeting は時間帯の呼び方を返す。
func SlotGreeting(slot model.TimeSlot) string {
	switch slot {
	case model.TimeSlotMorning:
		return "subah"
	case model.TimeSlotAfternoon:
		return "dopahar"
	case model.TimeSlotEvening:
		return "shaam"
	case model.TimeSlotNight:
		return "raat"
	default:
		return "waqt"
	}
}

// Reminder は服薬リマインダーの文面を生成する。
func Reminder(userName string, med *model.Medication) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Namaste, %s. Ab %s ki dava ka waqt ho gaya hai.\n\n", userName, SlotGreeting(med.TimeSlot))
	fmt.Fprintf(&b, "Dava ka naam hai %s %s.\n\n", med.Name, med.Dosage)
	b.WriteString(Explanation(med.Name))
	b.WriteString("\n\n")
	if med.Instructions != "" {
		fmt.Fprintf(&b, "Doctor ki instructions: %s\n\n", med.Instructions)
	}
	b.WriteString("Kripya ek gilas paani ke saath le lijiye.\n\n")
	b.WriteString("Kya aapne dava le li? Aap 'Haan' ya 'Nahi' bol sakte hain.")
	return b.String()
}

// MedicationInfo は薬についての質問への応答文を生成する。
func MedicationInfo(med *model.Medication) string {
	return fmt.Sprintf("%s %s - %s", med.Name, med.Dosage, Explanation(med.Name))
}

// CaregiverAlert は介護者向け通知の文面を生成する。
func CaregiverAlert(userName string, slot model.TimeSlot, missedCount int) string {
	return fmt.Sprintf("%s ne aaj %s ki dava miss ki hai. Total %d doses miss ho chuki hain. Kripya unse baat karein aur unki madad karein.",
		userName, slot, missedCount)
}

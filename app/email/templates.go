package email

import (
	"regexp"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

// localeTemplates is one row of the template table: every subject variant a
// language uses per email type, plus the decision wording for that language.
// Subjects are regular expressions; a (?P<title>...) group feeds the
// title+date identity fallback.
//
// The table is append-only by design: an email no row covers is recorded as
// unsupported and recovered on a later run once a row is added.
type localeTemplates struct {
	lang string

	nominationReceived []string
	nominationDecided  []string
	appealReceived     []string
	appealDecided      []string
	photoReceived      []string
	photoDecided       []string
	editReceived       []string
	editDecided        []string

	decision keywordSet // nomination/photo/edit decision wording
	appeal   keywordSet // appeal decision wording (Accepted only; rejection needs the history walk)
}

var templateLocales = []localeTemplates{
	{
		lang: "en",
		nominationReceived: []string{
			`^Portal submission confirmation: (?P<title>.+)$`,
			`^Thanks! Niantic Wayspot nomination received for (?P<title>.+)$`,
			`^Niantic Wayspot nomination received for (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Portal review complete: (?P<title>.+)$`,
			`^Niantic Wayspot nomination decided for (?P<title>.+)$`,
			`^Decision on your Niantic Wayspot nomination: (?P<title>.+)$`,
		},
		appealReceived: []string{
			`^Niantic Wayspot appeal received for (?P<title>.+)$`,
		},
		appealDecided: []string{
			`^Your Niantic Wayspot appeal has been decided for (?P<title>.+)$`,
			`^Niantic Wayspot appeal decided for (?P<title>.+)$`,
		},
		photoReceived: []string{
			`^Photo submission received for (?P<title>.+)$`,
			`^Portal photo submission confirmation$`,
		},
		photoDecided: []string{
			`^Photo submission decided for (?P<title>.+)$`,
			`^Portal photo review complete$`,
		},
		editReceived: []string{
			`^Edit suggestion received for (?P<title>.+)$`,
			`^Portal edit suggestion received$`,
		},
		editDecided: []string{
			`^Edit suggestion decided for (?P<title>.+)$`,
			`^Portal edit review complete$`,
		},
		decision: keywordSet{
			Accepted:  []string{"has decided to accept", "been accepted", "will now appear", "congratulations"},
			Rejected:  []string{"has decided not to accept", "not to accept your", "did not meet the criteria", "unfortunately"},
			Duplicate: []string{"duplicate of an existing", "already exists", "a duplicate"},
		},
		appeal: keywordSet{
			Accepted: []string{"appeal has been accepted", "decided to accept your appeal"},
			Rejected: []string{"appeal has been denied", "original decision stands"},
		},
	},
	{
		lang: "de",
		nominationReceived: []string{
			`^Eingangsbestätigung deines Portalvorschlags: (?P<title>.+)$`,
			`^Danke! Niantic Wayspot-Nominierung (?:für |erhalten: )(?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Überprüfung des Portals abgeschlossen: (?P<title>.+)$`,
			`^Entscheidung zur Niantic Wayspot-Nominierung (?P<title>.+)$`,
		},
		appealReceived: []string{
			`^Niantic Wayspot-Einspruch erhalten: (?P<title>.+)$`,
		},
		appealDecided: []string{
			`^Entscheidung zu deinem Niantic Wayspot-Einspruch: (?P<title>.+)$`,
		},
		photoReceived: []string{
			`^Fotovorschlag erhalten: (?P<title>.+)$`,
		},
		photoDecided: []string{
			`^Entscheidung zum Fotovorschlag: (?P<title>.+)$`,
		},
		editReceived: []string{
			`^Änderungsvorschlag erhalten: (?P<title>.+)$`,
		},
		editDecided: []string{
			`^Entscheidung zum Änderungsvorschlag: (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"akzeptiert", "aufgenommen", "Glückwunsch"},
			Rejected:  []string{"nicht akzeptiert", "abgelehnt", "leider"},
			Duplicate: []string{"Duplikat", "bereits vorhanden", "existiert bereits"},
		},
		appeal: keywordSet{
			Accepted: []string{"Einspruch wurde akzeptiert", "deinem Einspruch stattgegeben"},
			Rejected: []string{"Einspruch wurde abgelehnt"},
		},
	},
	{
		lang: "es",
		nominationReceived: []string{
			`^Confirmación de la propuesta de Portal: (?P<title>.+)$`,
			`^¡Gracias! Propuesta de Wayspot de Niantic recibida: (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Revisión del Portal completada: (?P<title>.+)$`,
			`^Decisión sobre la propuesta de Wayspot de Niantic: (?P<title>.+)$`,
		},
		appealReceived: []string{
			`^Apelación de Wayspot de Niantic recibida: (?P<title>.+)$`,
		},
		appealDecided: []string{
			`^Decisión sobre la apelación de Wayspot de Niantic: (?P<title>.+)$`,
		},
		photoReceived: []string{
			`^Propuesta de foto recibida: (?P<title>.+)$`,
		},
		photoDecided: []string{
			`^Decisión sobre la propuesta de foto: (?P<title>.+)$`,
		},
		editReceived: []string{
			`^Sugerencia de modificación recibida: (?P<title>.+)$`,
		},
		editDecided: []string{
			`^Decisión sobre la sugerencia de modificación: (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"ha sido aceptada", "aceptar tu propuesta", "enhorabuena"},
			Rejected:  []string{"no aceptar", "ha sido rechazada", "lamentablemente"},
			Duplicate: []string{"duplicado", "ya existe"},
		},
		appeal: keywordSet{
			Accepted: []string{"apelación ha sido aceptada"},
			Rejected: []string{"apelación ha sido rechazada"},
		},
	},
	{
		lang: "fr",
		nominationReceived: []string{
			`^Confirmation de la proposition de Portail\s*: (?P<title>.+)$`,
			`^Merci ! Proposition de Wayspot Niantic reçue pour (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Évaluation du Portail terminée\s*: (?P<title>.+)$`,
			`^Décision concernant la proposition de Wayspot Niantic (?P<title>.+)$`,
		},
		appealReceived: []string{
			`^Contestation de Wayspot Niantic reçue pour (?P<title>.+)$`,
		},
		appealDecided: []string{
			`^Décision concernant la contestation du Wayspot Niantic (?P<title>.+)$`,
		},
		photoReceived: []string{
			`^Proposition de photo reçue pour (?P<title>.+)$`,
		},
		photoDecided: []string{
			`^Décision concernant la proposition de photo pour (?P<title>.+)$`,
		},
		editReceived: []string{
			`^Suggestion de modification reçue pour (?P<title>.+)$`,
		},
		editDecided: []string{
			`^Décision concernant la suggestion de modification pour (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"a été acceptée", "d'accepter votre proposition", "félicitations"},
			Rejected:  []string{"ne pas accepter", "a été refusée", "malheureusement"},
			Duplicate: []string{"doublon", "existe déjà"},
		},
		appeal: keywordSet{
			Accepted: []string{"contestation a été acceptée"},
			Rejected: []string{"contestation a été refusée"},
		},
	},
	{
		lang: "it",
		nominationReceived: []string{
			`^Conferma della candidatura del Portale: (?P<title>.+)$`,
			`^Grazie! Candidatura Wayspot Niantic ricevuta per (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Valutazione del Portale completata: (?P<title>.+)$`,
			`^Decisione sulla candidatura Wayspot Niantic per (?P<title>.+)$`,
		},
		appealReceived: []string{
			`^Ricorso Wayspot Niantic ricevuto per (?P<title>.+)$`,
		},
		appealDecided: []string{
			`^Decisione sul ricorso Wayspot Niantic per (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"è stata accettata", "di accettare la tua candidatura", "congratulazioni"},
			Rejected:  []string{"di non accettare", "è stata rifiutata", "purtroppo"},
			Duplicate: []string{"duplicato", "esiste già"},
		},
		appeal: keywordSet{
			Accepted: []string{"ricorso è stato accettato"},
			Rejected: []string{"ricorso è stato respinto"},
		},
	},
	{
		lang: "nl",
		nominationReceived: []string{
			`^Bevestiging van portalinzending: (?P<title>.+)$`,
			`^Bedankt! Niantic Wayspot-nominatie ontvangen voor (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Beoordeling van portal voltooid: (?P<title>.+)$`,
			`^Besluit over Niantic Wayspot-nominatie voor (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"is geaccepteerd", "gefeliciteerd"},
			Rejected:  []string{"niet geaccepteerd", "is afgewezen", "helaas"},
			Duplicate: []string{"duplicaat", "bestaat al"},
		},
	},
	{
		lang: "pt",
		nominationReceived: []string{
			`^Confirmação de indicação de Portal: (?P<title>.+)$`,
			`^Agradecemos sua indicação de Wayspot Niantic: (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Análise de Portal concluída: (?P<title>.+)$`,
			`^Decisão sobre a indicação de Wayspot Niantic: (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"foi aceita", "aceitar sua indicação", "parabéns"},
			Rejected:  []string{"não aceitar", "foi recusada", "infelizmente"},
			Duplicate: []string{"duplicada", "já existe"},
		},
	},
	{
		lang: "ru",
		nominationReceived: []string{
			`^Подтверждение заявки на портал: (?P<title>.+)$`,
			`^Спасибо! Номинация Niantic Wayspot получена: (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Проверка портала завершена: (?P<title>.+)$`,
			`^Решение по номинации Niantic Wayspot: (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"принята", "поздравляем"},
			Rejected:  []string{"не принята", "отклонена", "к сожалению"},
			Duplicate: []string{"дубликат", "уже существует"},
		},
	},
	{
		lang: "sv",
		nominationReceived: []string{
			`^Bekräftelse av portalförslag: (?P<title>.+)$`,
			`^Tack! Niantic Wayspot-nominering mottagen för (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Granskning av portal slutförd: (?P<title>.+)$`,
			`^Beslut om Niantic Wayspot-nominering för (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"har accepterats", "grattis"},
			Rejected:  []string{"inte accepterats", "har avvisats", "tyvärr"},
			Duplicate: []string{"dubblett", "finns redan"},
		},
	},
	{
		lang: "ja",
		nominationReceived: []string{
			`^ポータル申請の確認: (?P<title>.+)$`,
			`^Niantic Wayspotの申請を受け付けました: (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^ポータルの審査が完了しました: (?P<title>.+)$`,
			`^Niantic Wayspot申請の審査結果: (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"承認されました", "おめでとうございます"},
			Rejected:  []string{"承認されませんでした", "残念ながら"},
			Duplicate: []string{"重複", "すでに存在"},
		},
	},
	{
		lang: "ko",
		nominationReceived: []string{
			`^포털 신청 확인: (?P<title>.+)$`,
			`^Niantic Wayspot 후보 접수 완료: (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^포털 심사 완료: (?P<title>.+)$`,
			`^Niantic Wayspot 후보 심사 결과: (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"승인되었습니다", "축하합니다"},
			Rejected:  []string{"승인되지 않았습니다", "아쉽게도"},
			Duplicate: []string{"중복", "이미 존재"},
		},
	},
	{
		lang: "zh",
		nominationReceived: []string{
			`^Portal 提交確認：(?P<title>.+)$`,
			`^感謝您！已收到 Niantic Wayspot 提名：(?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^Portal 審核完成：(?P<title>.+)$`,
			`^Niantic Wayspot 提名結果：(?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"已獲接受", "恭喜"},
			Rejected:  []string{"未獲接受", "很遺憾"},
			Duplicate: []string{"重複", "已存在"},
		},
	},
	{
		lang: "th",
		nominationReceived: []string{
			`^การยืนยันการเสนอพอร์ทัล: (?P<title>.+)$`,
		},
		nominationDecided: []string{
			`^การตรวจสอบพอร์ทัลเสร็จสมบูรณ์: (?P<title>.+)$`,
		},
		decision: keywordSet{
			Accepted:  []string{"ได้รับการยอมรับ", "ยินดีด้วย"},
			Rejected:  []string{"ไม่ได้รับการยอมรับ", "ขออภัย"},
			Duplicate: []string{"ซ้ำ", "มีอยู่แล้ว"},
		},
	},
}

// templateTable expands the per-locale rows into the flat ordered entry list
// the registry iterates. First match wins, so locale order above is also
// lookup priority.
func templateTable() []Entry {
	var entries []Entry

	for _, lt := range templateLocales {
		identity := []IdentityResolver{
			identityFromImage,
			identityFromTitleAndDate(lt.lang),
		}
		// Older photo/edit templates put the title in the body, not the
		// subject.
		photoEditIdentity := []IdentityResolver{
			identityFromImage,
			identityFromTitleAndDate(lt.lang),
			identityFromTitleElement("b, strong", lt.lang),
		}
		decision := []StatusResolver{
			statusFromKeywords(lt.decision),
			statusAcceptedIfMapLink,
		}
		appealDecision := []StatusResolver{
			statusFromKeywords(keywordSet{Accepted: lt.appeal.Accepted}),
			statusRejectedFromHistory,
		}

		add := func(typ Type, subjects []string, status []StatusResolver, identity []IdentityResolver) {
			for _, subject := range subjects {
				entries = append(entries, Entry{
					Type:     typ,
					Lang:     lt.lang,
					Subject:  regexp.MustCompile(subject),
					Status:   status,
					Identity: identity,
				})
			}
		}

		add(TypeNominationReceived, lt.nominationReceived, []StatusResolver{statusFixed(contrib.StatusNominated)}, identity)
		add(TypeNominationDecided, lt.nominationDecided, decision, identity)
		add(TypeAppealReceived, lt.appealReceived, []StatusResolver{statusFixed(contrib.StatusAppealed)}, identity)
		add(TypeAppealDecided, lt.appealDecided, appealDecision, identity)
		add(TypePhotoReceived, lt.photoReceived, []StatusResolver{statusFixed(contrib.StatusNominated)}, photoEditIdentity)
		add(TypePhotoDecided, lt.photoDecided, decision, photoEditIdentity)
		add(TypeEditReceived, lt.editReceived, []StatusResolver{statusFixed(contrib.StatusNominated)}, photoEditIdentity)
		add(TypeEditDecided, lt.editDecided, decision, photoEditIdentity)
	}

	return entries
}

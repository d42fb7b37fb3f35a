package assistant

import (
	"fmt"
	"strings"

	"maremio_backend/internal/extraction"
)

const extractorInstruction = `Sei un assistente che analizza conversazioni WhatsApp di una gastronomia di pesce per estrarre ordini.
Rispondi SOLO con un oggetto JSON valido, senza testo aggiuntivo e senza blocchi markdown.`

const summarizerInstruction = `Sei un assistente di una gastronomia di pesce. Riassumi conversazioni WhatsApp con i clienti in modo chiaro e conciso, in italiano.`

const replierInstruction = `Sei l'assistente della gastronomia "%s". Scrivi risposte WhatsApp cordiali e professionali ai clienti, in italiano.`

const photoInstruction = `Analizzi foto di menu cartacei compilati a mano per gli ordini di Natale di una gastronomia di pesce.
Rispondi SOLO con un oggetto JSON valido, senza testo aggiuntivo e senza blocchi markdown.`

// Transcript is a conversation rendered for the AI helpers.
type Transcript struct {
	PhoneNumber  string
	CustomerName string
	Lines        []TranscriptLine
}

// TranscriptLine is one message; Inbound marks the customer's side.
type TranscriptLine struct {
	Inbound bool
	Content string
}

func (t Transcript) render() string {
	var b strings.Builder
	for _, line := range t.Lines {
		content := strings.TrimSpace(line.Content)
		if content == "" {
			continue
		}
		if line.Inbound {
			b.WriteString("[Cliente]: ")
		} else {
			b.WriteString("[Noi]: ")
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}

func renderMenu(products []extraction.Product) string {
	var b strings.Builder
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (%s): €%.2f\n", p.Name, p.Category, p.Price)
	}
	return b.String()
}

func renderProductNames(products []extraction.Product) string {
	var b strings.Builder
	for _, p := range products {
		unit := p.Unit
		if unit == "" {
			unit = "porzione"
		}
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, unit)
	}
	return b.String()
}

func buildExtractPrompt(t Transcript, products []extraction.Product) string {
	return fmt.Sprintf(`Analizza questa conversazione WhatsApp ed estrai i dati dell'ordine.

Menu disponibile:
%s
Conversazione (telefono del cliente: %s):
%s
Rispondi con questo JSON:
{
  "customer": {"name": "nome del cliente se indicato", "phone": "telefono se diverso da quello della chat"},
  "items": [{"name": "nome del prodotto come nel menu", "quantity": 1}],
  "delivery_date": "YYYY-MM-DD se indicata",
  "delivery_time": "HH:mm se indicato",
  "delivery_type": "ritiro oppure consegna",
  "notes": "richieste particolari"
}
Usa i nomi dei prodotti del menu quando riconosci il piatto. Lascia vuoti i campi non presenti nella conversazione.`,
		renderMenu(products), t.PhoneNumber, t.render())
}

func buildSummaryPrompt(t Transcript) string {
	return fmt.Sprintf(`Riassumi questa conversazione con il cliente %s in 3-5 punti elenco.
Evidenzia prodotti richiesti, date, orari e richieste ancora in sospeso.

%s`, displayName(t), t.render())
}

func buildReplyPrompt(t Transcript) string {
	return fmt.Sprintf(`Suggerisci una risposta all'ultimo messaggio del cliente %s.
La risposta deve essere cordiale, di 2-3 frasi, senza inventare prezzi o disponibilità non presenti nella conversazione.
Rispondi solo con il testo del messaggio.

%s`, displayName(t), t.render())
}

func buildPhotoPrompt(products []extraction.Product) string {
	return fmt.Sprintf(`Questa è la foto di un menu di Natale compilato a mano dal cliente.
Prodotti del menu:
%s
Cerca i prodotti segnati con X, ✓ o con un numero accanto. Il numero indica la quantità; se il prodotto è solo segnato la quantità è 1.
Rispondi con questo JSON:
{"items": [{"product": "nome del prodotto come nel menu", "quantity": 1, "confidence": "high|medium|low"}], "notes": "eventuali annotazioni scritte a mano"}`,
		renderProductNames(products))
}

func displayName(t Transcript) string {
	if strings.TrimSpace(t.CustomerName) != "" {
		return t.CustomerName
	}
	return t.PhoneNumber
}

const chatInstruction = `Sei l'assistente virtuale del ristorante "%s", specializzato in pesce fresco.
Aiuti i clienti a scegliere i piatti del menù, dai consigli per gruppi, rispondi su ingredienti e allergeni e leggi le foto del menù compilato.
Rispondi sempre in italiano, con il tono cordiale di un cameriere, e proponi solo piatti presenti nel menù.
Quando il cliente indica dei piatti, a voce o in foto, chiudi la risposta con:
[ITEMS_JSON]{"items":[{"name":"Nome del piatto come nel menù","quantity":1}]}[/ITEMS_JSON]`

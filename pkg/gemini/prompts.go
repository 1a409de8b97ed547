package gemini

const extractPrompt = `Extract all text from this image, including any tables or structured data. Return the raw text exactly as it appears.`

// structurePrompt asks for a strict JSON array with the five canonical
// inventory columns. The tag formats in the examples match the labels this
// system is pointed at: serials prefixed 1H/AH/1HF/1HFS, MOH and SCR/CPU
// codifications.
const structurePrompt = `Extract equipment/inventory data from this text and format it as a JSON array. Each item must have these exact columns:

- Item_Description: name of the equipment (e.g. "Screen", "CPU")
- Quantity: number of items, digits only (e.g. "1", "2")
- Serial_Number: serial identifier (e.g. "1H35070V93", "1HF5MOW3X", "AH 35070 V2H")
- Tag_Number: tag or codification (e.g. "MOHDIG125/SCR587", "MOH/AIG125/CPU 1131", "SCR 513")
- Status: item status (e.g. "New", "2014")

Rules:
1. Serial numbers start with "1H", "AH", "1HF" or "1HFS" and may contain spaces.
2. Tag numbers follow MOH, CPU or SCR patterns.
3. Serial_Number and Tag_Number are distinct fields; parse them accurately.
4. Extract each line as a separate row.
5. Use "" for any missing column.
6. Return ONLY a valid JSON array, no additional text.

Text to process:
%s`
